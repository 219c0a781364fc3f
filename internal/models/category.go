package models

// Category — пункт чек-листа визуального мерчандайзинга
type Category struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
	Color string `yaml:"color"` // пастельный фон карточки в форме
}
