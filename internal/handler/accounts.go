// internal/handler/accounts.go
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"pennywise/internal/domain"
	"pennywise/internal/storage"
)

type AccountHandler struct {
	store  CombinedStorage
	linker Linker
}

func NewAccountHandler(store CombinedStorage, linker Linker) *AccountHandler {
	return &AccountHandler{store: store, linker: linker}
}

// CreateLinkToken returns a link session token for the client-side widget.
func (h *AccountHandler) CreateLinkToken(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	token, err := h.linker.CreateLinkToken(c.Request.Context(), userID)
	if err != nil {
		slog.Error("CreateLinkToken failed", "error", err, "user_id", userID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to create link token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"link_token": token})
}

// Link exchanges the widget's public token and stores every reported
// account under the exchanged access token.
func (h *AccountHandler) Link(c *gin.Context) {
	var req LinkAccountsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if errs := validateStruct(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": errs})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	accessToken, err := h.linker.ExchangePublicToken(c.Request.Context(), req.PublicToken)
	if err != nil {
		slog.Error("token exchange failed", "error", err, "user_id", userID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to exchange public token"})
		return
	}

	for _, acc := range req.Accounts {
		err := h.store.StoreOrUpdateLinkedAccount(c.Request.Context(), domain.LinkedAccount{
			UserID:          userID,
			InstitutionName: req.InstitutionName,
			AccountName:     acc.Name,
			AccountMask:     acc.Mask,
			AccessToken:     accessToken,
		})
		if err != nil {
			slog.Error("store linked account failed", "error", err, "user_id", userID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store linked account"})
			return
		}
	}

	slog.Info("accounts linked", "user_id", userID, "institution", req.InstitutionName, "count", len(req.Accounts))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AccountHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	accounts, err := h.store.ListLinkedAccounts(c.Request.Context(), userID)
	if err != nil {
		slog.Error("ListLinkedAccounts failed", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	if accounts == nil {
		accounts = []domain.LinkedAccount{}
	}
	c.JSON(http.StatusOK, accounts)
}

// Unlink deletes the linked account and every transaction that came from it.
func (h *AccountHandler) Unlink(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account id"})
		return
	}

	userID, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.store.DeleteLinkedAccount(c.Request.Context(), userID, accountID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
			return
		}
		slog.Error("DeleteLinkedAccount failed", "error", err, "user_id", userID, "account_id", accountID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// === DTO ===

type LinkAccountsRequest struct {
	PublicToken     string `json:"public_token" validate:"required,notblank"`
	InstitutionName string `json:"institution_name" validate:"required,notblank,max=255"`
	Accounts        []struct {
		Name string `json:"name" validate:"required,notblank,max=255"`
		Mask string `json:"mask" validate:"required,notblank,max=8"`
	} `json:"accounts" validate:"required,min=1,dive"`
}
