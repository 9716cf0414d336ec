package arraydiff

// Compare returns the edit script transforming old into next.
//
// The script is minimal in the number of added plus deleted entries. Where
// several minimal scripts exist, deletions are emitted before additions at
// the same position. Move pairs are detected after the script is built.
//
// The unmatched middle of the two sequences (what remains after trimming the
// common prefix and suffix) is diffed with a table of len(old)*len(new)
// cells. When that exceeds MaxTableCells the middle is reported as deleted
// and re-added in full instead, so the script is still correct but no longer
// minimal.
func Compare[E comparable](old, next []E) Script[E] {
	// Common prefix and suffix are retained as-is and kept out of the table.
	prefix := 0
	for prefix < len(old) && prefix < len(next) && old[prefix] == next[prefix] {
		prefix++
	}
	suffix := 0
	for suffix < len(old)-prefix && suffix < len(next)-prefix &&
		old[len(old)-1-suffix] == next[len(next)-1-suffix] {
		suffix++
	}

	script := make(Script[E], 0, len(old)+len(next)-prefix-suffix)
	for i := 0; i < prefix; i++ {
		script = append(script, Edit[E]{Status: Retained, Index: i, Value: next[i], Moved: NoMove})
	}

	script = appendMiddle(script, old[prefix:len(old)-suffix], next[prefix:len(next)-suffix], prefix)

	for i := 0; i < suffix; i++ {
		newIdx := len(next) - suffix + i
		script = append(script, Edit[E]{Status: Retained, Index: newIdx, Value: next[newIdx], Moved: NoMove})
	}

	pairMoves(script)
	return script
}

// MaxTableCells bounds the LCS table allocated by Compare. The default keeps
// the table under 32MB on 64-bit platforms.
var MaxTableCells = 1 << 22

// appendMiddle diffs the unmatched middle sections with a suffix LCS table.
// offset is the absolute index of a[0] and b[0].
func appendMiddle[E comparable](script Script[E], a, b []E, offset int) Script[E] {
	m, n := len(a), len(b)
	if m == 0 && n == 0 {
		return script
	}
	if m > 0 && n > 0 && m > MaxTableCells/n {
		return appendReplace(script, a, b, offset)
	}

	// lcs[i*(n+1)+j] is the LCS length of a[i:] and b[j:].
	width := n + 1
	lcs := make([]int, (m+1)*width)
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i*width+j] = lcs[(i+1)*width+j+1] + 1
			} else if down, right := lcs[(i+1)*width+j], lcs[i*width+j+1]; down >= right {
				lcs[i*width+j] = down
			} else {
				lcs[i*width+j] = right
			}
		}
	}

	i, j := 0, 0
	for i < m || j < n {
		switch {
		case i < m && j < n && a[i] == b[j]:
			script = append(script, Edit[E]{Status: Retained, Index: offset + j, Value: b[j], Moved: NoMove})
			i++
			j++
		case i < m && (j == n || lcs[(i+1)*width+j] >= lcs[i*width+j+1]):
			script = append(script, Edit[E]{Status: Deleted, Index: offset + i, Value: a[i], Moved: NoMove})
			i++
		default:
			script = append(script, Edit[E]{Status: Added, Index: offset + j, Value: b[j], Moved: NoMove})
			j++
		}
	}
	return script
}

// appendReplace deletes all of a and adds all of b.
func appendReplace[E any](script Script[E], a, b []E, offset int) Script[E] {
	for i, v := range a {
		script = append(script, Edit[E]{Status: Deleted, Index: offset + i, Value: v, Moved: NoMove})
	}
	for j, v := range b {
		script = append(script, Edit[E]{Status: Added, Index: offset + j, Value: v, Moved: NoMove})
	}
	return script
}

// pairMoves links each deleted entry to the first unpaired added entry
// holding the same value.
func pairMoves[E comparable](script Script[E]) {
	for d := range script {
		if script[d].Status != Deleted {
			continue
		}
		for a := range script {
			if script[a].Status != Added || script[a].IsMove() || script[a].Value != script[d].Value {
				continue
			}
			script[d].Moved = script[a].Index
			script[a].Moved = script[d].Index
			break
		}
	}
}
