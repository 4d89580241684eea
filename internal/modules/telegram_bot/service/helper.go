package service

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	cbTrade  = "trade"
	cbLesson = "lesson"

	lessonStep = 25
)

func mustInt(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}

// parseFloat принимает и запятую как десятичный разделитель.
func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "bad number %q", s)
	}
	return v, nil
}

// parseCallback разбирает "trade::buy::bitcoin" в части по "::".
func parseCallback(data string) []string {
	if !strings.Contains(data, "::") {
		return nil
	}
	return strings.Split(data, "::")
}

func callbackData(parts ...string) string {
	return strings.Join(parts, "::")
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
