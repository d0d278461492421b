package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/littlelemon/api/internal/database"
	"github.com/littlelemon/api/internal/enum"
)

// GroupStore defines the database methods needed by group membership
// handlers. Satisfied by *database.Queries.
type GroupStore interface {
	GetGroupByName(ctx context.Context, name string) (database.Group, error)
	GetUserByUsername(ctx context.Context, username string) (database.User, error)
	GetUserByID(ctx context.Context, id int64) (database.User, error)
	ListUsersInGroup(ctx context.Context, name string) ([]database.User, error)
	AddUserToGroup(ctx context.Context, arg database.AddUserToGroupParams) error
	RemoveUserFromGroup(ctx context.Context, arg database.RemoveUserFromGroupParams) (int64, error)
	SetUserStaff(ctx context.Context, arg database.SetUserStaffParams) (database.User, error)
}

// GroupHandler manages Manager and Delivery Crew membership. All of its
// routes sit behind the manager gate.
type GroupHandler struct {
	store GroupStore
}

func NewGroupHandler(store GroupStore) *GroupHandler {
	return &GroupHandler{store: store}
}

// RegisterRoutes registers group membership endpoints.
func (h *GroupHandler) RegisterRoutes(r chi.Router) {
	r.Get("/groups/manager/users", h.listMembers(enum.GroupManager))
	r.Post("/groups/manager/users", h.addMember(enum.GroupManager))
	r.Delete("/groups/manager/users/{id}", h.removeMember(enum.GroupManager))

	r.Get("/groups/delivery-crew/users", h.listMembers(enum.GroupDeliveryCrew))
	r.Post("/groups/delivery-crew/users", h.addMember(enum.GroupDeliveryCrew))
	r.Delete("/groups/delivery-crew/users/{id}", h.removeMember(enum.GroupDeliveryCrew))
}

type addMemberRequest struct {
	Username string `json:"username"`
}

func (h *GroupHandler) listMembers(groupName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := h.store.ListUsersInGroup(r.Context(), groupName)
		if err != nil {
			log.Printf("ERROR: list group members: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		resp := make([]userResponse, 0, len(users))
		for _, u := range users {
			resp = append(resp, toUserResponse(u))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// addMember adds the user named in the body to the group. Adding to the
// Manager group also raises the staff flag, so the new manager can use
// the staff-gated catalog endpoints immediately.
func (h *GroupHandler) addMember(groupName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addMemberRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if req.Username == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
			return
		}

		user, err := h.store.GetUserByUsername(r.Context(), req.Username)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
				return
			}
			log.Printf("ERROR: get user: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		group, err := h.store.GetGroupByName(r.Context(), groupName)
		if err != nil {
			log.Printf("ERROR: get group: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		if err := h.store.AddUserToGroup(r.Context(), database.AddUserToGroupParams{
			UserID:  user.ID,
			GroupID: group.ID,
		}); err != nil {
			log.Printf("ERROR: add user to group: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		if groupName == enum.GroupManager && !user.IsStaff {
			if _, err := h.store.SetUserStaff(r.Context(), database.SetUserStaffParams{
				ID:      user.ID,
				IsStaff: true,
			}); err != nil {
				log.Printf("ERROR: set staff flag: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
		}

		writeJSON(w, http.StatusCreated, map[string]string{"message": "ok"})
	}
}

// removeMember removes the user in the URL from the group. A malformed
// id behaves like a missing user: both are 404, since the path simply
// does not name a removable member.
func (h *GroupHandler) removeMember(groupName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}

		group, err := h.store.GetGroupByName(r.Context(), groupName)
		if err != nil {
			log.Printf("ERROR: get group: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}

		removed, err := h.store.RemoveUserFromGroup(r.Context(), database.RemoveUserFromGroupParams{
			UserID:  userID,
			GroupID: group.ID,
		})
		if err != nil {
			log.Printf("ERROR: remove user from group: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		if removed == 0 {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}

		if groupName == enum.GroupManager {
			if _, err := h.store.SetUserStaff(r.Context(), database.SetUserStaffParams{
				ID:      userID,
				IsStaff: false,
			}); err != nil {
				log.Printf("ERROR: clear staff flag: %v", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
