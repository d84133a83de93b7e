package models

type Tag struct {
	ID    uint   `json:"id" gorm:"primarykey"`
	Name  string `json:"name" gorm:"size:200;not null"`
	Color string `json:"color" gorm:"size:7;not null"`
	Slug  string `json:"slug" gorm:"size:200;uniqueIndex;not null"`
}

type Ingredient struct {
	ID              uint   `json:"id" gorm:"primarykey"`
	Name            string `json:"name" gorm:"size:200;index;not null"`
	MeasurementUnit string `json:"measurement_unit" gorm:"size:200;not null"`
}
