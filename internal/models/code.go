package models

import "regexp"

// CodePattern — допустимые символы кода магазина и ключа категории.
// Оба попадают в ключ фото и в URL.
var CodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func ValidCode(s string) bool {
	return CodePattern.MatchString(s)
}
