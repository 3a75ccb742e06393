package jwttoken

import (
	"bondline/internal/platform/middleware"
	pstrings "bondline/pkg/platform/strings"
)

func ToMiddlewareClaims(claims *Claims) (*middleware.JWTClaims, error) {
	caller, err := claims.Caller()
	if err != nil {
		return nil, err
	}
	return &middleware.JWTClaims{Caller: caller, Roles: pstrings.DedupeAndTrimLower(claims.Roles)}, nil
}

type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims)
}
