// Package config loads observe.json, the configuration of the observe
// command.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 8080,
//	    "writeTimeout": "10s",
//	    "queueSize": 64
//	  },
//	  "initial": ["milk", "eggs"],
//	  "throttle": "50ms",
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "metrics": {
//	    "enabled": true,
//	    "namespace": "observe"
//	  },
//	  "tracing": {
//	    "enabled": false,
//	    "tracerName": "observe"
//	  },
//	  "snapshot": {
//	    "bucket": "my-bucket",
//	    "prefix": "lists/",
//	    "key": "groceries.json",
//	    "region": "eu-west-1"
//	  }
//	}
//
// Every field is optional. A missing file yields the defaults.
//
// # Usage
//
//	cfg, err := config.LoadFile("observe.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
