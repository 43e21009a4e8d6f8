package sheets

// FindAppendTarget returns the 1-based row a new submission should be written to.
//
// rows holds the sheet from row 1, as returned for an "A:D" style read, so rows[0] is row 1.
// The first row at or after startRow whose leading cell is absent or empty wins; a cell holding only spaces counts as occupied; when there is no gap the row after the
// last populated one is used.
func FindAppendTarget(rows [][]string, startRow int) int {
	if startRow < 1 {
		startRow = 1
	}

	for row := startRow; row <= len(rows); row++ {
		cells := rows[row-1]
		if len(cells) == 0 || cells[0] == "" {
			return row
		}
	}

	return max(len(rows)+1, startRow)
}

// FindUserColumn scans header from index from and returns the index of the first cell equal to name.
//
// Duplicate headers resolve to the leftmost match.
func FindUserColumn(header []string, name string, from int) (int, bool) {
	if name == "" {
		return -1, false
	}
	for i := max(from, 0); i < len(header); i++ {
		if header[i] == name {
			return i, true
		}
	}
	return -1, false
}
