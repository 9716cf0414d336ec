// Package snapshot persists observable values to S3.
//
// A Sink subscribes to the change event of an observable and uploads the
// JSON encoding of the new value. Uploads run on the goroutine that calls
// Run, never on the notifying goroutine; when changes arrive faster than
// uploads complete, only the latest value is uploaded.
//
//	client, err := snapshot.NewS3Client(snapshot.ClientConfig{Region: "eu-west-1"})
//	sink := snapshot.New(client, "my-bucket", "lists/groceries.json")
//	sink.Attach(arr)
//	go sink.Run(ctx)
package snapshot
