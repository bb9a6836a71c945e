package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/settleup/internal/currency"
	"github.com/mmynk/settleup/internal/middleware"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
	"github.com/mmynk/settleup/pkg/api"
	"github.com/mmynk/settleup/pkg/api/apiconnect"
)

// minGroupMembers is the smallest roster worth splitting expenses between.
const minGroupMembers = 2

// GroupService implements the Connect GroupService
type GroupService struct {
	apiconnect.UnimplementedGroupServiceHandler
	store           storage.Store
	defaultCurrency string
}

// NewGroupService creates a new GroupService with the given storage backend.
// Groups created without a currency use defaultCurrency.
func NewGroupService(store storage.Store, defaultCurrency string) *GroupService {
	return &GroupService{store: store, defaultCurrency: defaultCurrency}
}

// CreateGroup creates a new group with its initial roster.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group name required"))
	}

	code := req.Msg.Currency
	if code == "" {
		code = s.defaultCurrency
	}
	cur, err := currency.Lookup(code)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	members, err := rosterFromNames(req.Msg.Members)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	group := &models.Group{
		Name:     name,
		Currency: cur.Code,
		Members:  members,
	}

	// Link the caller to the first member so the creator shows up as themselves
	if userID := middleware.GetUserID(ctx); userID != "" {
		group.Members[0].UserID = userID
	}

	// Save to storage (generates IDs and timestamps)
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Group created", "group_id", group.ID, "currency", group.Currency)

	return connect.NewResponse(&api.CreateGroupResponse{Group: groupToAPI(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupId)

	if req.Msg.GroupId == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group_id required"))
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupId)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupId, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "name", group.Name)

	return connect.NewResponse(&api.GetGroupResponse{Group: groupToAPI(group)}), nil
}

// AddMember appends a member to a group's roster.
func (s *GroupService) AddMember(ctx context.Context, req *connect.Request[api.AddMemberRequest]) (*connect.Response[api.AddMemberResponse], error) {
	slog.Info("AddMember request received", "group_id", req.Msg.GroupId, "name", req.Msg.Name)

	name := strings.TrimSpace(req.Msg.Name)
	if req.Msg.GroupId == "" || name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("group_id and name required"))
	}

	group, err := s.store.GetGroup(ctx, req.Msg.GroupId)
	if err != nil {
		slog.Error("AddMember failed - group not found", "group_id", req.Msg.GroupId, "error", err)
		return nil, toConnectError(err)
	}
	for _, m := range group.Members {
		if strings.EqualFold(m.Name, name) {
			return nil, connect.NewError(connect.CodeAlreadyExists, fmt.Errorf("member %q already in group", name))
		}
	}

	member := &models.Member{
		GroupID: group.ID,
		Name:    name,
		UserID:  req.Msg.UserId,
	}
	if err := s.store.AddMember(ctx, member); err != nil {
		slog.Error("AddMember failed", "group_id", group.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Member added", "group_id", group.ID, "member_id", member.ID)

	return connect.NewResponse(&api.AddMemberResponse{Member: memberToAPI(member)}), nil
}

// rosterFromNames builds the initial members, rejecting blank and duplicate names.
func rosterFromNames(names []string) ([]models.Member, error) {
	seen := make(map[string]bool, len(names))
	members := make([]models.Member, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, errors.New("member names must not be empty")
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate member %q", name)
		}
		seen[key] = true
		members = append(members, models.Member{Name: name})
	}
	if len(members) < minGroupMembers {
		return nil, fmt.Errorf("a group needs at least %d members", minGroupMembers)
	}
	return members, nil
}

// toConnectError maps storage errors to Connect codes.
func toConnectError(err error) *connect.Error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
