package photos

import (
	"fmt"
	"strings"

	"retail-audit/internal/models"
)

type PhotoType string

const (
	TypeGuide   PhotoType = "guide"
	TypeCurrent PhotoType = "current"
)

func ParseType(s string) (PhotoType, error) {
	switch t := PhotoType(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeGuide, TypeCurrent:
		return t, nil
	}
	return "", fmt.Errorf("unknown photo type %q", s)
}

// Key — одна «последняя» фотография на (магазин, категория, тип)
func Key(store, category string, t PhotoType) (string, error) {
	if !models.ValidCode(store) {
		return "", fmt.Errorf("invalid store code %q", store)
	}
	if !models.ValidCode(category) {
		return "", fmt.Errorf("invalid category %q", category)
	}
	if t != TypeGuide && t != TypeCurrent {
		return "", fmt.Errorf("unknown photo type %q", t)
	}
	return store + "/" + category + "/" + string(t), nil
}
