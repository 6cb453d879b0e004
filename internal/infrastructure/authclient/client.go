package authclient

import (
	"context"
	"net/http"
	"strings"

	"resty.dev/v3"

	"arbor-server/chat-api/internal/config"
	"arbor-server/chat-api/internal/domain"
	"arbor-server/chat-api/internal/utils/httpclients"
	"arbor-server/chat-api/internal/utils/platformerrors"
)

// Resolver exchanges a session token for the principal it belongs to.
// Identity lives in a separate auth service; this service only consumes it.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*domain.Principal, error)
}

type resolveRequest struct {
	Token string `json:"token"`
}

type resolveResponse struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type httpResolver struct {
	client     *resty.Client
	endpoint   string
	serviceKey string
}

// NewResolver constructs an HTTP-backed principal resolver.
func NewResolver(cfg *config.Config) Resolver {
	client := httpclients.NewClient("AuthResolveClient")
	client.SetTimeout(cfg.AuthResolveTimeout)

	return &httpResolver{
		client:     client,
		endpoint:   cfg.AuthResolveURL,
		serviceKey: strings.TrimSpace(cfg.AuthServiceKey),
	}
}

// Resolve implements Resolver. An unknown or expired token resolves to an
// unauthorized error; transport failures surface as external errors so they
// map to 502 rather than 401.
func (r *httpResolver) Resolve(ctx context.Context, token string) (*domain.Principal, error) {
	if strings.TrimSpace(token) == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnauthorized,
			"missing session token", nil, "0a7d4e92-6f1b-48c3-95a0-d38e61f2c7b4")
	}

	var result resolveResponse
	req := r.client.R().
		SetContext(ctx).
		SetBody(resolveRequest{Token: token}).
		SetResult(&result)
	if r.serviceKey != "" {
		req.SetHeader("X-Service-Key", r.serviceKey)
	}

	resp, err := req.Post(r.endpoint)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"auth service unreachable", err, "5e9c21b8-0d47-4a6f-83b2-c19f7d04e8a3")
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnauthorized,
			"session token rejected", nil, "c48b0f17-92e5-4d3a-b86c-71a2d5e90f4b")
	default:
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeExternal,
			"auth service returned unexpected status", nil, "72f3a8d0-4c15-49eb-a6d9-08b5c3e17f62")
	}

	kind := domain.PrincipalKind(result.Kind)
	if kind != domain.PrincipalKindUser && kind != domain.PrincipalKindAdmin {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerInfrastructure, platformerrors.ErrorTypeUnauthorized,
			"auth service returned unknown principal kind", nil, "e61d9b35-7a02-4f84-9c3e-b50f28a71d96")
	}

	return &domain.Principal{
		ID:       result.ID,
		Kind:     kind,
		Username: result.Username,
		Email:    result.Email,
	}, nil
}
