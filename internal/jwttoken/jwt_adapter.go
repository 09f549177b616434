package jwttoken

import "eduledger/internal/platform/middleware"

// MiddlewareAdapter bridges Service to the transport middleware's validator
// interface without the middleware importing JWT internals.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.IssuerClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.IssuerClaims{IssuerID: claims.IssuerID}, nil
}
