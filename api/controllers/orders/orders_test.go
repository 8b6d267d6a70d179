package orders

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bookstore-backend/api/middleware"
	internalorders "github.com/angelmondragon/bookstore-backend/internal/orders"
	"github.com/angelmondragon/bookstore-backend/pkg/db/models"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/bookstore-backend/pkg/errors"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
	"github.com/angelmondragon/bookstore-backend/pkg/pagination"
)

type stubOrdersService struct {
	internalorders.Service

	shipping internalorders.ShippingInfo
	status   enums.OrderStatus
	actor    internalorders.Actor
	filters  internalorders.AdminFilters
	isAdmin  bool
	err      error
}

func (s *stubOrdersService) CreateOrder(ctx context.Context, userID uuid.UUID, shipping internalorders.ShippingInfo) (*models.Order, error) {
	s.shipping = shipping
	if s.err != nil {
		return nil, s.err
	}
	return &models.Order{ID: uuid.New(), UserID: userID, Status: enums.OrderStatusPending}, nil
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, actor internalorders.Actor) (*models.Order, error) {
	s.status = status
	s.actor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &models.Order{ID: orderID, Status: status}, nil
}

func (s *stubOrdersService) GetOrder(ctx context.Context, orderID, userID uuid.UUID, isAdmin bool) (*models.Order, error) {
	s.isAdmin = isAdmin
	return &models.Order{ID: orderID, UserID: userID}, nil
}

func (s *stubOrdersService) AdminListOrders(ctx context.Context, filters internalorders.AdminFilters, params pagination.Params) (*internalorders.OrderList, error) {
	s.filters = filters
	return &internalorders.OrderList{Orders: []models.Order{}}, nil
}

func (s *stubOrdersService) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	return nil, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func request(method, target, body string, userID uuid.UUID, role enums.UserRole, orderID *uuid.UUID) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	if orderID != nil {
		rc := chi.NewRouteContext()
		rc.URLParams.Add("orderId", orderID.String())
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rc)
	}
	return req.WithContext(ctx)
}

func TestCreateMapsShippingFields(t *testing.T) {
	svc := &stubOrdersService{}
	body := `{"shipping_address":"1 Main St","shipping_city":"Porto","shipping_zip":"4000","shipping_phone":"+351"}`
	resp := httptest.NewRecorder()
	Create(svc, testLogger())(resp, request(http.MethodPost, "/api/v1/orders", body, uuid.New(), enums.UserRoleCustomer, nil))

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, internalorders.ShippingInfo{Address: "1 Main St", City: "Porto", Zip: "4000", Phone: "+351"}, svc.shipping)
}

func TestCreateSurfacesEmptyCart(t *testing.T) {
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeBadRequest, "cart is empty")}
	resp := httptest.NewRecorder()
	Create(svc, testLogger())(resp, request(http.MethodPost, "/api/v1/orders", `{}`, uuid.New(), enums.UserRoleCustomer, nil))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "cart is empty")
}

func TestCancelSurfacesStateError(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{err: pkgerrors.New(pkgerrors.CodeBadRequest, "only pending orders can be cancelled")}
	resp := httptest.NewRecorder()
	Cancel(svc, testLogger())(resp, request(http.MethodPatch, "/api/v1/orders/"+orderID.String()+"/cancel", "", uuid.New(), enums.UserRoleCustomer, &orderID))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), "only pending orders can be cancelled")
}

func TestDetailPassesAdminFlag(t *testing.T) {
	orderID := uuid.New()
	svc := &stubOrdersService{}
	resp := httptest.NewRecorder()
	Detail(svc, testLogger())(resp, request(http.MethodGet, "/api/v1/orders/"+orderID.String(), "", uuid.New(), enums.UserRoleAdmin, &orderID))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, svc.isAdmin)
}

func TestDetailRejectsMalformedOrderID(t *testing.T) {
	req := request(http.MethodGet, "/api/v1/orders/nope", "", uuid.New(), enums.UserRoleCustomer, nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", "nope")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	resp := httptest.NewRecorder()
	Detail(&stubOrdersService{}, testLogger())(resp, req)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminUpdateStatusParsesStatusAndActor(t *testing.T) {
	orderID, adminID := uuid.New(), uuid.New()
	svc := &stubOrdersService{}
	resp := httptest.NewRecorder()
	AdminUpdateStatus(svc, testLogger())(resp, request(http.MethodPatch, "/api/v1/orders/admin/"+orderID.String()+"/status", `{"status":"shipped"}`, adminID, enums.UserRoleAdmin, &orderID))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, enums.OrderStatusShipped, svc.status)
	assert.Equal(t, adminID, svc.actor.UserID)
	assert.True(t, svc.actor.IsAdmin())
}

func TestAdminUpdateStatusRejectsUnknownStatus(t *testing.T) {
	orderID := uuid.New()
	resp := httptest.NewRecorder()
	AdminUpdateStatus(&stubOrdersService{}, testLogger())(resp, request(http.MethodPatch, "/x", `{"status":"LOST"}`, uuid.New(), enums.UserRoleAdmin, &orderID))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Contains(t, resp.Body.String(), string(pkgerrors.CodeValidation))
}

func TestAdminListFilters(t *testing.T) {
	userID := uuid.New()
	svc := &stubOrdersService{}
	resp := httptest.NewRecorder()
	AdminList(svc, testLogger())(resp, request(http.MethodGet, "/api/v1/orders/admin?status=PENDING&user_id="+userID.String(), "", uuid.New(), enums.UserRoleAdmin, nil))

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, svc.filters.Status)
	assert.Equal(t, enums.OrderStatusPending, *svc.filters.Status)
	require.NotNil(t, svc.filters.UserID)
	assert.Equal(t, userID, *svc.filters.UserID)
}
