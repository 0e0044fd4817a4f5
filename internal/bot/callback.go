package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// Callback data is colon-separated: an action name followed by integer
// arguments, e.g. "topic:12" or "adm:test:up:4". Telegram caps callback
// data at 64 bytes, which these stay well under.
func callbackData(parts ...string) string {
	return strings.Join(parts, ":")
}

func callbackID(action string, id int) string {
	return action + ":" + strconv.Itoa(id)
}

// splitCallback returns the action verb and its arguments. Admin actions
// keep their "adm" prefix inside the verb, so "adm:deltopic:5" routes as
// verb "adm:deltopic" with argument "5".
func splitCallback(data string) (string, []string) {
	parts := strings.Split(data, ":")
	if parts[0] == "adm" && len(parts) > 1 {
		return "adm:" + parts[1], parts[2:]
	}
	return parts[0], parts[1:]
}

func callbackInt(args []string, pos int) (int, error) {
	if pos >= len(args) {
		return 0, fmt.Errorf("callback argument %d missing", pos)
	}
	n, err := strconv.Atoi(args[pos])
	if err != nil {
		return 0, fmt.Errorf("callback argument %d: %w", pos, err)
	}
	return n, nil
}
