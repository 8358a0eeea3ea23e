package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/safar/barrio-store/internal/database"
	"github.com/safar/barrio-store/internal/models"
	"github.com/safar/barrio-store/internal/store"
)

type userView struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

func handleRegister(docs *database.DocStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		role, err := models.ParseRole(req.Role)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		user, err := store.Register(r.Context(), docs, store.RegisterRequest{
			Username: req.Username,
			Password: req.Password,
			Role:     role,
		})
		if err != nil && !errors.Is(err, database.ErrNotifyFailed) {
			respondErr(w, err)
			return
		}

		respondStored(w, http.StatusCreated, userView{Username: user.Username, Role: user.Role}, err)
	}
}

func handleLogin(docs *database.DocStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		sess, err := store.Authenticate(r.Context(), docs, req.Username, req.Password)
		if err != nil {
			respondErr(w, err)
			return
		}

		respondJSON(w, http.StatusOK, sess)
	}
}

func handleListUsers(docs *database.DocStore) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, _ store.Session) {
		users := store.ListUsers(r.Context(), docs)
		views := make([]userView, 0, len(users))
		for _, u := range users {
			views = append(views, userView{Username: u.Username, Role: u.Role})
		}
		respondJSON(w, http.StatusOK, views)
	}
}

func handleListStores(docs *database.DocStore) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, _ store.Session) {
		respondJSON(w, http.StatusOK, store.ListStores(r.Context(), docs))
	}
}

func handleMyStore(docs *database.DocStore) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sess store.Session) {
		shop, err := store.GetStoreFor(r.Context(), docs, sess.Username)
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, shop)
	}
}

func handleRegisterStore(docs *database.DocStore) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sess store.Session) {
		var req struct {
			Name     string   `json:"name"`
			Products []string `json:"products"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		shop, err := store.RegisterStore(r.Context(), docs, store.RegisterStoreRequest{
			Owner:    sess.Username,
			Name:     req.Name,
			Products: req.Products,
		})
		if err != nil {
			respondErr(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, shop)
	}
}

func handleUpdateProducts(docs *database.DocStore) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sess store.Session) {
		var req struct {
			Products []string `json:"products"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		shop, err := store.UpdateProducts(r.Context(), docs, sess.Username, req.Products)
		if err != nil {
			respondErr(w, err)
			return
		}
		if shop == nil {
			respondErr(w, database.ErrStoreNotFound)
			return
		}

		respondJSON(w, http.StatusOK, shop)
	}
}

func handleCreateOrder(docs *database.DocStore) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sess store.Session) {
		var req struct {
			Store    string `json:"store"`
			Product  string `json:"product"`
			Quantity int    `json:"quantity"`
			Address  string `json:"address"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		order, err := store.CreateOrder(r.Context(), docs, store.CreateOrderRequest{
			Customer: sess.Username,
			Store:    req.Store,
			Product:  req.Product,
			Quantity: req.Quantity,
			Address:  req.Address,
		})
		if err != nil && !errors.Is(err, database.ErrNotifyFailed) {
			respondErr(w, err)
			return
		}

		respondStored(w, http.StatusCreated, order, err)
	}
}

// handleListOrders scopes the listing by role: customers see their own
// orders, shopkeepers the orders of their store, the administrator all.
func handleListOrders(docs *database.DocStore) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sess store.Session) {
		ctx := r.Context()

		switch sess.Role {
		case models.RoleAdmin:
			respondJSON(w, http.StatusOK, store.ListOrders(ctx, docs))
		case models.RoleShopkeeper:
			respondJSON(w, http.StatusOK, store.ListForOwner(ctx, docs, sess.Username))
		default:
			respondJSON(w, http.StatusOK, store.ListForCustomer(ctx, docs, sess.Username))
		}
	}
}

func handleAdvanceStatus(docs *database.DocStore) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sess store.Session) {
		ctx := r.Context()

		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid order ID")
			return
		}

		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		status, err := models.ParseOrderStatus(req.Status)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		order, err := store.GetOrder(ctx, docs, id)
		if err != nil {
			respondErr(w, err)
			return
		}
		if err := store.CanManageOrder(ctx, docs, sess, *order); err != nil {
			respondErr(w, err)
			return
		}

		updated, err := store.AdvanceStatus(ctx, docs, id, status)
		if err != nil && !errors.Is(err, database.ErrNotifyFailed) {
			respondErr(w, err)
			return
		}

		respondStored(w, http.StatusOK, updated, err)
	}
}

func handleListNotifications(docs *database.DocStore) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sess store.Session) {
		ctx := r.Context()
		recipient := store.RecipientFor(sess)

		list := store.ListFor(ctx, docs, recipient)
		if r.URL.Query().Get("mark_read") == "true" {
			if _, err := store.MarkAllRead(ctx, docs, recipient); err != nil {
				respondErr(w, err)
				return
			}
		}

		respondJSON(w, http.StatusOK, list)
	}
}

func handleUnreadCount(docs *database.DocStore) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sess store.Session) {
		count := store.UnreadCount(r.Context(), docs, store.RecipientFor(sess))
		respondJSON(w, http.StatusOK, map[string]int{"unread": count})
	}
}

func handleMarkRead(docs *database.DocStore) sessionHandler {
	return func(w http.ResponseWriter, r *http.Request, sess store.Session) {
		changed, err := store.MarkAllRead(r.Context(), docs, store.RecipientFor(sess))
		if err != nil {
			respondErr(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]int{"marked": changed})
	}
}
