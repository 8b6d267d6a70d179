package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/bookstore-backend/pkg/db"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
)

// Service exposes the per-user cart aggregate.
type Service interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddItem(ctx context.Context, userID, bookID uuid.UUID, qty int) (*CartView, error)
	UpdateItemQuantity(ctx context.Context, userID, bookID uuid.UUID, qty int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, bookID uuid.UUID) (*CartView, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
	CreateEmptyTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error)
	LoadForCheckout(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error)
	ClearTx(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

type service struct {
	repo  CartRepository
	users userLoader
	books bookLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, users userLoader, books bookLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	if books == nil {
		return nil, fmt.Errorf("book loader required")
	}
	return &service{repo: repo, users: users, books: books}, nil
}

func (s *service) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.FindByUserID(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}

	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load user")
	}

	return s.createEmpty(ctx, s.repo, userID)
}

func (s *service) CreateEmptyTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	return s.createEmpty(ctx, s.repo.WithTx(tx), userID)
}

func (s *service) createEmpty(ctx context.Context, repo CartRepository, userID uuid.UUID) (*models.Cart, error) {
	created, err := repo.Create(ctx, &models.Cart{UserID: userID})
	if err != nil {
		// Lost a race with a concurrent first add; the other request's cart wins.
		if db.IsUniqueViolation(err, "") {
			existing, findErr := repo.FindByUserID(ctx, userID)
			if findErr == nil {
				return existing, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create cart")
	}
	created.Items = []models.CartItem{}
	return created, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return buildView(cart), nil
}

// AddItem puts qty copies of a book in the cart. A book already in the cart
// has its quantity increased; the combined quantity is checked at checkout.
func (s *service) AddItem(ctx context.Context, userID, bookID uuid.UUID, qty int) (*CartView, error) {
	if qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "quantity must be positive")
	}
	if err := s.ensurePurchasable(ctx, bookID, qty); err != nil {
		return nil, err
	}
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.upsertLine(ctx, cart.ID, bookID, qty); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, userID)
}

func (s *service) upsertLine(ctx context.Context, cartID, bookID uuid.UUID, qty int) error {
	existing, err := s.repo.FindItem(ctx, cartID, bookID)
	switch {
	case err == nil:
		if err := s.repo.IncrementItem(ctx, existing.ID, qty); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: increment cart item")
		}
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart item")
	}

	_, err = s.repo.CreateItem(ctx, &models.CartItem{CartID: cartID, BookID: bookID, Quantity: qty})
	if err == nil {
		return nil
	}
	if !db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert cart item")
	}
	existing, err = s.repo.FindItem(ctx, cartID, bookID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart item")
	}
	if err := s.repo.IncrementItem(ctx, existing.ID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: increment cart item")
	}
	return nil
}

// UpdateItemQuantity replaces a line's quantity. Zero removes the line.
func (s *service) UpdateItemQuantity(ctx context.Context, userID, bookID uuid.UUID, qty int) (*CartView, error) {
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBadRequest, "quantity cannot be negative")
	}
	if qty == 0 {
		return s.RemoveItem(ctx, userID, bookID)
	}

	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, cart.ID, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book is not in the cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart item")
	}
	if err := s.ensurePurchasable(ctx, bookID, qty); err != nil {
		return nil, err
	}
	if err := s.repo.SetItemQuantity(ctx, item.ID, qty); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cart item")
	}
	return s.GetCart(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, bookID uuid.UUID) (*CartView, error) {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	deleted, err := s.repo.DeleteItem(ctx, cart.ID, bookID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete cart item")
	}
	if deleted == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book is not in the cart")
	}
	return s.GetCart(ctx, userID)
}

// ClearCart empties the cart. An already empty cart is not an error.
func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	cart, err := s.GetOrCreateCart(ctx, userID)
	if err != nil {
		return err
	}
	return s.ClearTx(ctx, nil, cart.ID)
}

// LoadForCheckout reads the cart inside the checkout transaction. A user
// without a cart gets nil and no error.
func (s *service) LoadForCheckout(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	cart, err := s.repo.WithTx(tx).FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}
	return cart, nil
}

func (s *service) ClearTx(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	if err := s.repo.WithTx(tx).DeleteAllItems(ctx, cartID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
	}
	return nil
}

func (s *service) ensurePurchasable(ctx context.Context, bookID uuid.UUID, qty int) error {
	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return err
	}
	if !book.IsActive {
		return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
	}
	if book.Stock < qty {
		return pkgerrors.New(pkgerrors.CodeBadRequest, fmt.Sprintf("insufficient stock for %s", book.Title)).
			WithDetails(map[string]any{
				"book_id":   book.ID.String(),
				"title":     book.Title,
				"requested": qty,
				"available": book.Stock,
			})
	}
	return nil
}
