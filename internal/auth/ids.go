package auth

import "strconv"

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseID(raw string) int64 {
	id, _ := strconv.ParseInt(raw, 10, 64)
	return id
}
