package endpoint

import (
	"context"

	ep "github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/log"
	"github.com/shopspring/decimal"

	"github.com/ck4445/ECKOBits/pkg/repository"
	"github.com/ck4445/ECKOBits/pkg/service"
)

// Set collects all of the endpoints that compose the ledger's read surface.
// It's meant to be used as a helper struct, to collect all of the endpoints
// into a single parameter.
type Set struct {
	HealthCheckEndpoint        ep.Endpoint
	BalanceEndpoint            ep.Endpoint
	NotificationsEndpoint      ep.Endpoint
	ClearNotificationsEndpoint ep.Endpoint
	PreferencesEndpoint        ep.Endpoint
	SetPreferencesEndpoint     ep.Endpoint
	LeaderboardEndpoint        ep.Endpoint
	SubscriptionsEndpoint      ep.Endpoint
	CompanyEndpoint            ep.Endpoint
}

// New returns a Set that wraps the provided service, and wires in all of
// the expected endpoint middlewares via the various parameters.
func New(svc service.Service, logger log.Logger) Set {
	var healthCheckEndpoint ep.Endpoint
	{
		healthCheckEndpoint = MakeHealthCheckEndpoint(svc)
		healthCheckEndpoint = LoggingMiddleware(log.With(logger, "method", "HealthCheck"))(healthCheckEndpoint)
	}
	var balanceEndpoint ep.Endpoint
	{
		balanceEndpoint = MakeBalanceEndpoint(svc)
		balanceEndpoint = LoggingMiddleware(log.With(logger, "method", "Balance"))(balanceEndpoint)
	}
	var notificationsEndpoint ep.Endpoint
	{
		notificationsEndpoint = MakeNotificationsEndpoint(svc)
		notificationsEndpoint = LoggingMiddleware(log.With(logger, "method", "Notifications"))(notificationsEndpoint)
	}
	var clearNotificationsEndpoint ep.Endpoint
	{
		clearNotificationsEndpoint = MakeClearNotificationsEndpoint(svc)
		clearNotificationsEndpoint = LoggingMiddleware(log.With(logger, "method", "ClearNotifications"))(clearNotificationsEndpoint)
	}
	var preferencesEndpoint ep.Endpoint
	{
		preferencesEndpoint = MakePreferencesEndpoint(svc)
		preferencesEndpoint = LoggingMiddleware(log.With(logger, "method", "Preferences"))(preferencesEndpoint)
	}
	var setPreferencesEndpoint ep.Endpoint
	{
		setPreferencesEndpoint = MakeSetPreferencesEndpoint(svc)
		setPreferencesEndpoint = LoggingMiddleware(log.With(logger, "method", "SetPreferences"))(setPreferencesEndpoint)
	}
	var leaderboardEndpoint ep.Endpoint
	{
		leaderboardEndpoint = MakeLeaderboardEndpoint(svc)
		leaderboardEndpoint = LoggingMiddleware(log.With(logger, "method", "Leaderboard"))(leaderboardEndpoint)
	}
	var subscriptionsEndpoint ep.Endpoint
	{
		subscriptionsEndpoint = MakeSubscriptionsEndpoint(svc)
		subscriptionsEndpoint = LoggingMiddleware(log.With(logger, "method", "Subscriptions"))(subscriptionsEndpoint)
	}
	var companyEndpoint ep.Endpoint
	{
		companyEndpoint = MakeCompanyEndpoint(svc)
		companyEndpoint = LoggingMiddleware(log.With(logger, "method", "Company"))(companyEndpoint)
	}
	return Set{
		HealthCheckEndpoint:        healthCheckEndpoint,
		BalanceEndpoint:            balanceEndpoint,
		NotificationsEndpoint:      notificationsEndpoint,
		ClearNotificationsEndpoint: clearNotificationsEndpoint,
		PreferencesEndpoint:        preferencesEndpoint,
		SetPreferencesEndpoint:     setPreferencesEndpoint,
		LeaderboardEndpoint:        leaderboardEndpoint,
		SubscriptionsEndpoint:      subscriptionsEndpoint,
		CompanyEndpoint:            companyEndpoint,
	}
}

// MakeHealthCheckEndpoint constructs a HealthCheck endpoint wrapping the service.
func MakeHealthCheckEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, _ interface{}) (response interface{}, err error) {
		v, err := s.HealthCheck(ctx)
		return HealthCheckResponse{Success: v, Error: err}, nil
	}
}

// MakeBalanceEndpoint constructs a Balance endpoint wrapping the service.
func MakeBalanceEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(BalanceRequest)
		v, err := s.Balance(ctx, req.User)
		return BalanceResponse{Success: err == nil, User: repository.SanitizeName(req.User), Balance: v, Error: err}, nil
	}
}

// MakeNotificationsEndpoint constructs a Notifications endpoint wrapping the service.
func MakeNotificationsEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(NotificationsRequest)
		v, err := s.Notifications(ctx, req.User)
		return NotificationsResponse{Success: err == nil, Notifications: v, Error: err}, nil
	}
}

// MakeClearNotificationsEndpoint constructs a ClearNotifications endpoint wrapping the service.
func MakeClearNotificationsEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(ClearNotificationsRequest)
		err = s.ClearNotifications(ctx, req.User)
		return ClearNotificationsResponse{Success: err == nil, Error: err}, nil
	}
}

// MakePreferencesEndpoint constructs a Preferences endpoint wrapping the service.
func MakePreferencesEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(PreferencesRequest)
		v, err := s.Preferences(ctx, req.User)
		return PreferencesResponse{Success: err == nil, Preferences: v, Error: err}, nil
	}
}

// MakeSetPreferencesEndpoint constructs a SetPreferences endpoint wrapping the service.
func MakeSetPreferencesEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(SetPreferencesRequest)
		err = s.SetPreferences(ctx, req.User, req.Theme, req.Mute)
		return SetPreferencesResponse{Success: err == nil, Error: err}, nil
	}
}

// MakeLeaderboardEndpoint constructs a Leaderboard endpoint wrapping the service.
func MakeLeaderboardEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(LeaderboardRequest)
		v, err := s.Leaderboard(ctx, req.Limit, req.Offset)
		return LeaderboardResponse{Success: err == nil, Entries: v, Error: err}, nil
	}
}

// MakeSubscriptionsEndpoint constructs a Subscriptions endpoint wrapping the service.
func MakeSubscriptionsEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(SubscriptionsRequest)
		v, err := s.Subscriptions(ctx, req.Payer)
		return SubscriptionsResponse{Success: err == nil, Subscriptions: v, Error: err}, nil
	}
}

// MakeCompanyEndpoint constructs a Company endpoint wrapping the service.
func MakeCompanyEndpoint(s service.Service) ep.Endpoint {
	return func(ctx context.Context, request interface{}) (response interface{}, err error) {
		req := request.(CompanyRequest)
		v, err := s.Company(ctx, req.Name)
		if err == nil && v == nil {
			return CompanyResponse{Success: false, Error: service.ErrCompanyNotFound}, nil
		}
		return CompanyResponse{Success: err == nil, Company: v, Error: err}, nil
	}
}

// compile time assertions for our response types implementing endpoint.Failer.
var (
	_ ep.Failer = HealthCheckResponse{}
	_ ep.Failer = BalanceResponse{}
	_ ep.Failer = NotificationsResponse{}
	_ ep.Failer = ClearNotificationsResponse{}
	_ ep.Failer = PreferencesResponse{}
	_ ep.Failer = SetPreferencesResponse{}
	_ ep.Failer = LeaderboardResponse{}
	_ ep.Failer = SubscriptionsResponse{}
	_ ep.Failer = CompanyResponse{}
)

// HealthCheckRequest collects the request parameters for the HealthCheck method.
type HealthCheckRequest struct{}

// BalanceRequest collects the request parameters for the Balance method.
type BalanceRequest struct {
	User string
}

// NotificationsRequest collects the request parameters for the Notifications method.
type NotificationsRequest struct {
	User string
}

// ClearNotificationsRequest collects the request parameters for the ClearNotifications method.
type ClearNotificationsRequest struct {
	User string
}

// PreferencesRequest collects the request parameters for the Preferences method.
type PreferencesRequest struct {
	User string
}

// SetPreferencesRequest collects the request parameters for the SetPreferences method.
type SetPreferencesRequest struct {
	User  string `json:"-"`
	Theme string `json:"theme"`
	Mute  string `json:"mute"`
}

// LeaderboardRequest collects the request parameters for the Leaderboard method.
type LeaderboardRequest struct {
	Limit  int
	Offset int
}

// SubscriptionsRequest collects the request parameters for the Subscriptions method.
type SubscriptionsRequest struct {
	Payer string
}

// CompanyRequest collects the request parameters for the Company method.
type CompanyRequest struct {
	Name string
}

// HealthCheckResponse collects the response values for the HealthCheck method.
type HealthCheckResponse struct {
	Success bool  `json:"success"`
	Error   error `json:"error,omitempty"`
}

// BalanceResponse collects the response values for the Balance method.
type BalanceResponse struct {
	Success bool            `json:"success"`
	User    string          `json:"user"`
	Balance decimal.Decimal `json:"balance"`
	Error   error           `json:"error,omitempty"`
}

// NotificationsResponse collects the response values for the Notifications method.
type NotificationsResponse struct {
	Success       bool     `json:"success"`
	Notifications []string `json:"notifications"`
	Error         error    `json:"error,omitempty"`
}

// ClearNotificationsResponse collects the response values for the ClearNotifications method.
type ClearNotificationsResponse struct {
	Success bool  `json:"success"`
	Error   error `json:"error,omitempty"`
}

// PreferencesResponse collects the response values for the Preferences method.
type PreferencesResponse struct {
	Success     bool                   `json:"success"`
	Preferences repository.Preferences `json:"preferences"`
	Error       error                  `json:"error,omitempty"`
}

// SetPreferencesResponse collects the response values for the SetPreferences method.
type SetPreferencesResponse struct {
	Success bool  `json:"success"`
	Error   error `json:"error,omitempty"`
}

// LeaderboardResponse collects the response values for the Leaderboard method.
type LeaderboardResponse struct {
	Success bool                          `json:"success"`
	Entries []repository.LeaderboardEntry `json:"leaderboard"`
	Error   error                         `json:"error,omitempty"`
}

// SubscriptionsResponse collects the response values for the Subscriptions method.
type SubscriptionsResponse struct {
	Success       bool                      `json:"success"`
	Subscriptions []repository.Subscription `json:"subscriptions"`
	Error         error                     `json:"error,omitempty"`
}

// CompanyResponse collects the response values for the Company method.
type CompanyResponse struct {
	Success bool                `json:"success"`
	Company *repository.Company `json:"company,omitempty"`
	Error   error               `json:"error,omitempty"`
}

// Failed implements endpoint.Failer.
func (r HealthCheckResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r BalanceResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r NotificationsResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r ClearNotificationsResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r PreferencesResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r SetPreferencesResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r LeaderboardResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r SubscriptionsResponse) Failed() error {
	return r.Error
}

// Failed implements endpoint.Failer.
func (r CompanyResponse) Failed() error {
	return r.Error
}
