package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/bookstore-backend/api/controllers/params"
	"github.com/angelmondragon/bookstore-backend/api/responses"
	"github.com/angelmondragon/bookstore-backend/api/validators"
	"github.com/angelmondragon/bookstore-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/types"
)

type createBookPayload struct {
	Title       string             `json:"title" validate:"required,max=255"`
	Author      string             `json:"author" validate:"required,max=255"`
	ISBN        string             `json:"isbn" validate:"required,min=10,max=17"`
	Description *string            `json:"description"`
	Price       types.CatalogPrice `json:"price"`
	Stock       int                `json:"stock" validate:"gte=0"`
	IsActive    *bool              `json:"is_active"`
	CategoryID  *uuid.UUID         `json:"category_id"`
}

type updateBookPayload struct {
	Title       *string             `json:"title" validate:"omitempty,max=255"`
	Author      *string             `json:"author" validate:"omitempty,max=255"`
	ISBN        *string             `json:"isbn" validate:"omitempty,min=10,max=17"`
	Description *string             `json:"description"`
	Price       *types.CatalogPrice `json:"price"`
	Stock       *int                `json:"stock" validate:"omitempty,gte=0"`
	IsActive    *bool               `json:"is_active"`
	CategoryID  *uuid.UUID          `json:"category_id"`
}

type createCategoryPayload struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Slug        string  `json:"slug" validate:"omitempty,max=100"`
	Description *string `json:"description"`
}

func AdminCreateBook(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createBookPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		active := true
		if body.IsActive != nil {
			active = *body.IsActive
		}

		book, err := svc.CreateBook(r.Context(), catalog.CreateBookInput{
			Title:       body.Title,
			Author:      body.Author,
			ISBN:        body.ISBN,
			Description: body.Description,
			Price:       body.Price,
			Stock:       body.Stock,
			IsActive:    active,
			CategoryID:  body.CategoryID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, book)
	}
}

func AdminUpdateBook(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		bookID, err := params.UUID(r, "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateBookPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.UpdateBook(r.Context(), bookID, catalog.UpdateBookInput{
			Title:       body.Title,
			Author:      body.Author,
			ISBN:        body.ISBN,
			Description: body.Description,
			Price:       body.Price,
			Stock:       body.Stock,
			IsActive:    body.IsActive,
			CategoryID:  body.CategoryID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, book)
	}
}

// AdminDeleteBook soft-deletes a book by deactivating it.
func AdminDeleteBook(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		bookID, err := params.UUID(r, "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeactivateBook(r.Context(), bookID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AdminCreateCategory(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createCategoryPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		category, err := svc.CreateCategory(r.Context(), catalog.CreateCategoryInput{
			Name:        body.Name,
			Slug:        body.Slug,
			Description: body.Description,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, category)
	}
}
