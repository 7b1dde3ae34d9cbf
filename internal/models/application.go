package models

import "github.com/google/uuid"

type Application struct {
	ID          uuid.UUID `json:"id"`
	Reference   string    `json:"appAdminReference"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActif     bool      `json:"isActif"`
	Audit
}

type CreateApplicationRequest struct {
	Reference   string `json:"appAdminReference" validate:"required,max=64"`
	Name        string `json:"name" validate:"required,max=128"`
	Description string `json:"description" validate:"max=512"`
}

type Menu struct {
	ID              uuid.UUID `json:"id"`
	ApplicationID   uuid.UUID `json:"applicationId"`
	Reference       string    `json:"reference"`
	Label           string    `json:"label"`
	Route           string    `json:"route"`
	Icon            string    `json:"icon,omitempty"`
	Position        int       `json:"position"`
	ParentReference string    `json:"parentReference,omitempty"`
	IsActif         bool      `json:"isActif"`
	Audit
}

type CreateMenuRequest struct {
	Reference       string `json:"reference" validate:"required,max=64"`
	Label           string `json:"label" validate:"required,max=128"`
	Route           string `json:"route" validate:"required,max=256"`
	Icon            string `json:"icon" validate:"max=64"`
	Position        int    `json:"position" validate:"min=0"`
	ParentReference string `json:"parentReference" validate:"max=64"`
}

type UpdateMenuRequest struct {
	Reference       string `json:"reference" validate:"required,max=64"`
	Label           string `json:"label" validate:"required,max=128"`
	Route           string `json:"route" validate:"required,max=256"`
	Icon            string `json:"icon" validate:"max=64"`
	Position        int    `json:"position" validate:"min=0"`
	ParentReference string `json:"parentReference" validate:"max=64"`
}

type ToggleMenuRequest struct {
	AppAdminReference string `json:"appAdminReference" validate:"required,max=64"`
	Reference         string `json:"reference" validate:"required,max=64"`
}
