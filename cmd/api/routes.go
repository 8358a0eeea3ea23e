package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/safar/barrio-store/internal/database"
	"github.com/safar/barrio-store/internal/models"
	"github.com/safar/barrio-store/internal/store"
	"go.uber.org/zap"
)

func newRouter(docs *database.DocStore, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", handleRegister(docs))
	mux.HandleFunc("POST /login", handleLogin(docs))

	mux.HandleFunc("GET /users", withSession(docs, handleListUsers(docs), models.RoleAdmin))

	mux.HandleFunc("GET /stores", withSession(docs, handleListStores(docs)))
	mux.HandleFunc("GET /stores/mine", withSession(docs, handleMyStore(docs), models.RoleShopkeeper))
	mux.HandleFunc("POST /stores", withSession(docs, handleRegisterStore(docs), models.RoleShopkeeper))
	mux.HandleFunc("PUT /stores/mine/products", withSession(docs, handleUpdateProducts(docs), models.RoleShopkeeper))

	mux.HandleFunc("POST /orders", withSession(docs, handleCreateOrder(docs), models.RoleCustomer))
	mux.HandleFunc("GET /orders", withSession(docs, handleListOrders(docs)))
	mux.HandleFunc("POST /orders/{id}/status", withSession(docs, handleAdvanceStatus(docs), models.RoleShopkeeper))

	mux.HandleFunc("GET /notifications", withSession(docs, handleListNotifications(docs)))
	mux.HandleFunc("GET /notifications/unread", withSession(docs, handleUnreadCount(docs)))
	mux.HandleFunc("POST /notifications/read", withSession(docs, handleMarkRead(docs)))

	return logRequests(logger, mux)
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess store.Session)

// withSession authenticates the request with HTTP basic auth. When roles are
// given, the session's role must be one of them.
func withSession(docs *database.DocStore, next sessionHandler, roles ...models.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="barrio"`)
			respondError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		sess, err := store.Authenticate(r.Context(), docs, username, password)
		if err != nil {
			respondErr(w, err)
			return
		}

		if len(roles) > 0 {
			allowed := false
			for _, role := range roles {
				if sess.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				respondErr(w, database.ErrForbidden)
				return
			}
		}

		next(w, r, *sess)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, database.ErrInvalidCredential):
		return http.StatusUnauthorized
	case errors.Is(err, database.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrStoreNotFound),
		errors.Is(err, database.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrUserExists),
		errors.Is(err, database.ErrStoreExists),
		errors.Is(err, database.ErrStoreNameTaken),
		errors.Is(err, database.ErrInvalidTransition):
		return http.StatusConflict
	case database.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondErr(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

// respondStored answers a write whose record was persisted. A notification
// that could not be delivered does not fail the request; it is reported in a
// Warning header instead.
func respondStored(w http.ResponseWriter, status int, data interface{}, err error) {
	if err != nil {
		w.Header().Set("Warning", fmt.Sprintf("199 barrio %q", err.Error()))
	}
	respondJSON(w, status, data)
}
