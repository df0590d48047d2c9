package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/port"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/repository"
)

type edge [2]int64

// memStore is an in-memory policy store shared by the usecase tests.
type memStore struct {
	mu sync.Mutex

	users         map[int64]domain.User
	roles         map[int64]domain.Role
	permissions   map[int64]domain.Permission
	endpoints     map[int64]domain.Endpoint
	userRoles     map[edge]domain.UserRole
	rolePerms     map[edge]struct{}
	endpointPerms map[edge]struct{}
	admins        map[int64]domain.AdminGrant
	sessions      map[string]domain.Session

	nextID  int64
	calls   map[string]int
	failOn  map[string]error
	touched []string
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[int64]domain.User),
		roles:         make(map[int64]domain.Role),
		permissions:   make(map[int64]domain.Permission),
		endpoints:     make(map[int64]domain.Endpoint),
		userRoles:     make(map[edge]domain.UserRole),
		rolePerms:     make(map[edge]struct{}),
		endpointPerms: make(map[edge]struct{}),
		admins:        make(map[int64]domain.AdminGrant),
		sessions:      make(map[string]domain.Session),
		nextID:        100,
		calls:         make(map[string]int),
		failOn:        make(map[string]error),
	}
}

// call records op and returns the injected failure for it, if any. Callers hold mu.
func (s *memStore) call(op string) error {
	s.calls[op]++
	return s.failOn[op]
}

func (s *memStore) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) addUser(id int64, name, email string) {
	s.users[id] = domain.User{ID: id, DisplayName: name, Email: email}
}

func (s *memStore) addRole(id int64, name string) {
	s.roles[id] = domain.Role{ID: id, DisplayName: name}
}

func (s *memStore) addPermission(id int64, resource, action string) domain.Permission {
	p := domain.Permission{ID: id, Resource: resource, Action: action}
	s.permissions[id] = p
	return p
}

func (s *memStore) addEndpoint(id int64, path, method string) {
	s.endpoints[id] = domain.Endpoint{ID: id, Path: path, Method: method}
}

func (s *memStore) rolePermissionCount(roleID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for e := range s.rolePerms {
		if e[0] == roleID {
			n++
		}
	}
	return n
}

func (s *memStore) endpointPermissionIDs(endpointID int64) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0)
	for e := range s.endpointPerms {
		if e[0] == endpointID {
			ids = append(ids, e[1])
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *memStore) repos() PolicyRepositories {
	return PolicyRepositories{
		Roles:       memRoles{s},
		Endpoints:   memEndpoints{s},
		Permissions: memPermissions{s},
		Users:       memUsers{s},
		AdminGrants: memAdmins{s},
	}
}

// InTx snapshots the graph and restores it when fn fails.
func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, repos port.PolicyRepositories) error) error {
	s.mu.Lock()
	if err := s.call("tx.Begin"); err != nil {
		s.mu.Unlock()
		return err
	}
	roles := cloneMap(s.roles)
	endpoints := cloneMap(s.endpoints)
	rolePerms := cloneMap(s.rolePerms)
	endpointPerms := cloneMap(s.endpointPerms)
	s.mu.Unlock()

	err := fn(ctx, port.PolicyRepositories{Roles: memRoles{s}, Endpoints: memEndpoints{s}, Permissions: memPermissions{s}})
	if err != nil {
		s.mu.Lock()
		s.roles, s.endpoints, s.rolePerms, s.endpointPerms = roles, endpoints, rolePerms, endpointPerms
		s.mu.Unlock()
	}
	return err
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

type memPermissions struct{ s *memStore }

func (m memPermissions) Create(_ context.Context, p domain.Permission) (*domain.Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("permissions.Create"); err != nil {
		return nil, err
	}
	for _, existing := range m.s.permissions {
		if existing.Resource == p.Resource && existing.Action == p.Action {
			return nil, repository.ErrConflict
		}
	}
	p.ID = m.s.id()
	m.s.permissions[p.ID] = p
	return &p, nil
}

func (m memPermissions) GetByID(_ context.Context, id int64) (*domain.Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("permissions.GetByID"); err != nil {
		return nil, err
	}
	p, ok := m.s.permissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m memPermissions) GetByResourceAction(_ context.Context, resource, action string) (*domain.Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("permissions.GetByResourceAction"); err != nil {
		return nil, err
	}
	for _, p := range m.s.permissions {
		if p.Resource == resource && p.Action == action {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memPermissions) List(_ context.Context) ([]domain.Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("permissions.List"); err != nil {
		return nil, err
	}
	return domain.NewPermissionSet(values(m.s.permissions)...).Sorted(), nil
}

func (m memPermissions) ListByIDs(_ context.Context, ids []int64) ([]domain.Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("permissions.ListByIDs"); err != nil {
		return nil, err
	}
	set := domain.NewPermissionSet()
	for _, id := range ids {
		if p, ok := m.s.permissions[id]; ok {
			set.Add(p)
		}
	}
	return set.Sorted(), nil
}

// ListByRoleIDs deliberately returns one row per edge so callers must de-duplicate.
func (m memPermissions) ListByRoleIDs(_ context.Context, roleIDs []int64) ([]domain.Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("permissions.ListByRoleIDs"); err != nil {
		return nil, err
	}
	wanted := make(map[int64]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		wanted[id] = struct{}{}
	}
	out := make([]domain.Permission, 0)
	for e := range m.s.rolePerms {
		if _, ok := wanted[e[0]]; ok {
			out = append(out, m.s.permissions[e[1]])
		}
	}
	return out, nil
}

func (m memPermissions) ListByEndpoint(_ context.Context, endpointID int64) ([]domain.Permission, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("permissions.ListByEndpoint"); err != nil {
		return nil, err
	}
	set := domain.NewPermissionSet()
	for e := range m.s.endpointPerms {
		if e[0] == endpointID {
			set.Add(m.s.permissions[e[1]])
		}
	}
	return set.Sorted(), nil
}

type memRoles struct{ s *memStore }

func (m memRoles) Create(_ context.Context, role domain.Role) (*domain.Role, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("roles.Create"); err != nil {
		return nil, err
	}
	role.ID = m.s.id()
	m.s.roles[role.ID] = role
	return &role, nil
}

func (m memRoles) GetByID(_ context.Context, id int64) (*domain.Role, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("roles.GetByID"); err != nil {
		return nil, err
	}
	role, ok := m.s.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (m memRoles) List(_ context.Context) ([]domain.Role, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("roles.List"); err != nil {
		return nil, err
	}
	roles := values(m.s.roles)
	sort.Slice(roles, func(i, j int) bool { return roles[i].ID < roles[j].ID })
	return roles, nil
}

func (m memRoles) Update(_ context.Context, role domain.Role) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("roles.Update"); err != nil {
		return err
	}
	if _, ok := m.s.roles[role.ID]; !ok {
		return repository.ErrNotFound
	}
	m.s.roles[role.ID] = role
	return nil
}

func (m memRoles) Delete(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("roles.Delete"); err != nil {
		return err
	}
	if _, ok := m.s.roles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.roles, id)
	for e := range m.s.rolePerms {
		if e[0] == id {
			delete(m.s.rolePerms, e)
		}
	}
	for e := range m.s.userRoles {
		if e[1] == id {
			delete(m.s.userRoles, e)
		}
	}
	return nil
}

func (m memRoles) ListIDsByUser(_ context.Context, userID int64) ([]int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("roles.ListIDsByUser"); err != nil {
		return nil, err
	}
	ids := make([]int64, 0)
	for e := range m.s.userRoles {
		if e[0] == userID {
			ids = append(ids, e[1])
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m memRoles) HasPermission(_ context.Context, roleID, permissionID int64) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("roles.HasPermission"); err != nil {
		return false, err
	}
	_, ok := m.s.rolePerms[edge{roleID, permissionID}]
	return ok, nil
}

func (m memRoles) GetByIDForUpdate(_ context.Context, id int64) (*domain.Role, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("roles.GetByIDForUpdate"); err != nil {
		return nil, err
	}
	role, ok := m.s.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (m memRoles) AttachPermissions(_ context.Context, roleID int64, ids []int64) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("roles.AttachPermissions"); err != nil {
		return 0, err
	}
	return attachEdges(m.s.rolePerms, roleID, ids)
}

func (m memRoles) DetachPermissions(_ context.Context, roleID int64, ids []int64) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("roles.DetachPermissions"); err != nil {
		return 0, err
	}
	return detachEdges(m.s.rolePerms, roleID, ids), nil
}

func (m memRoles) DetachAllPermissions(_ context.Context, roleID int64) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("roles.DetachAllPermissions"); err != nil {
		return 0, err
	}
	return detachEdges(m.s.rolePerms, roleID, ownerEdges(m.s.rolePerms, roleID)), nil
}

type memEndpoints struct{ s *memStore }

func (m memEndpoints) Create(_ context.Context, endpoint domain.Endpoint) (*domain.Endpoint, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("endpoints.Create"); err != nil {
		return nil, err
	}
	for _, existing := range m.s.endpoints {
		if existing.Path == endpoint.Path && existing.Method == endpoint.Method {
			return nil, repository.ErrConflict
		}
	}
	endpoint.ID = m.s.id()
	m.s.endpoints[endpoint.ID] = endpoint
	return &endpoint, nil
}

func (m memEndpoints) GetByID(_ context.Context, id int64) (*domain.Endpoint, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("endpoints.GetByID"); err != nil {
		return nil, err
	}
	endpoint, ok := m.s.endpoints[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &endpoint, nil
}

func (m memEndpoints) GetByIDForUpdate(_ context.Context, id int64) (*domain.Endpoint, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("endpoints.GetByIDForUpdate"); err != nil {
		return nil, err
	}
	endpoint, ok := m.s.endpoints[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &endpoint, nil
}

func (m memEndpoints) GetByRoute(_ context.Context, path, method string) (*domain.Endpoint, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("endpoints.GetByRoute"); err != nil {
		return nil, err
	}
	for _, endpoint := range m.s.endpoints {
		if endpoint.Path == path && endpoint.Method == method {
			endpoint := endpoint
			return &endpoint, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m memEndpoints) List(_ context.Context) ([]domain.Endpoint, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("endpoints.List"); err != nil {
		return nil, err
	}
	endpoints := values(m.s.endpoints)
	sort.Slice(endpoints, func(i, j int) bool {
		if endpoints[i].Path == endpoints[j].Path {
			return endpoints[i].Method < endpoints[j].Method
		}
		return endpoints[i].Path < endpoints[j].Path
	})
	return endpoints, nil
}

func (m memEndpoints) Update(_ context.Context, endpoint domain.Endpoint) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("endpoints.Update"); err != nil {
		return err
	}
	if _, ok := m.s.endpoints[endpoint.ID]; !ok {
		return repository.ErrNotFound
	}
	m.s.endpoints[endpoint.ID] = endpoint
	return nil
}

func (m memEndpoints) Delete(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("endpoints.Delete"); err != nil {
		return err
	}
	if _, ok := m.s.endpoints[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.endpoints, id)
	detachEdges(m.s.endpointPerms, id, ownerEdges(m.s.endpointPerms, id))
	return nil
}

func (m memEndpoints) HasPermission(_ context.Context, endpointID, permissionID int64) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("endpoints.HasPermission"); err != nil {
		return false, err
	}
	_, ok := m.s.endpointPerms[edge{endpointID, permissionID}]
	return ok, nil
}

func (m memEndpoints) AttachPermissions(_ context.Context, endpointID int64, ids []int64) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("endpoints.AttachPermissions"); err != nil {
		return 0, err
	}
	return attachEdges(m.s.endpointPerms, endpointID, ids)
}

func (m memEndpoints) DetachPermissions(_ context.Context, endpointID int64, ids []int64) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("endpoints.DetachPermissions"); err != nil {
		return 0, err
	}
	return detachEdges(m.s.endpointPerms, endpointID, ids), nil
}

func (m memEndpoints) DetachAllPermissions(_ context.Context, endpointID int64) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("endpoints.DetachAllPermissions"); err != nil {
		return 0, err
	}
	return detachEdges(m.s.endpointPerms, endpointID, ownerEdges(m.s.endpointPerms, endpointID)), nil
}

type memUsers struct{ s *memStore }

func (m memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("users.GetByID"); err != nil {
		return nil, err
	}
	user, ok := m.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (m memUsers) HasRole(_ context.Context, userID, roleID int64) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("users.HasRole"); err != nil {
		return false, err
	}
	_, ok := m.s.userRoles[edge{userID, roleID}]
	return ok, nil
}

func (m memUsers) AssignRole(_ context.Context, assignment domain.UserRole) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("users.AssignRole"); err != nil {
		return err
	}
	key := edge{assignment.UserID, assignment.RoleID}
	if _, ok := m.s.userRoles[key]; ok {
		return repository.ErrConflict
	}
	m.s.userRoles[key] = assignment
	return nil
}

func (m memUsers) RemoveRole(_ context.Context, userID, roleID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("users.RemoveRole"); err != nil {
		return err
	}
	key := edge{userID, roleID}
	if _, ok := m.s.userRoles[key]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.userRoles, key)
	return nil
}

type memAdmins struct{ s *memStore }

func (m memAdmins) IsAdmin(_ context.Context, userID int64) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("admins.IsAdmin"); err != nil {
		return false, err
	}
	_, ok := m.s.admins[userID]
	return ok, nil
}

func (m memAdmins) Grant(_ context.Context, grant domain.AdminGrant) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("admins.Grant"); err != nil {
		return err
	}
	if _, ok := m.s.admins[grant.UserID]; ok {
		return repository.ErrConflict
	}
	m.s.admins[grant.UserID] = grant
	return nil
}

func (m memAdmins) Revoke(_ context.Context, userID int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("admins.Revoke"); err != nil {
		return err
	}
	if _, ok := m.s.admins[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.admins, userID)
	return nil
}

type memSessions struct{ s *memStore }

func (m memSessions) Create(_ context.Context, session domain.Session) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("sessions.Create"); err != nil {
		return err
	}
	m.s.sessions[session.ID] = session
	return nil
}

func (m memSessions) ResolveUser(_ context.Context, sessionID string) (*domain.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("sessions.ResolveUser"); err != nil {
		return nil, err
	}
	session, ok := m.s.sessions[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user, ok := m.s.users[session.UserID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (m memSessions) Touch(_ context.Context, sessionID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("sessions.Touch"); err != nil {
		return err
	}
	m.s.touched = append(m.s.touched, sessionID)
	return nil
}

func (m memSessions) Delete(_ context.Context, sessionID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if err := m.s.call("sessions.Delete"); err != nil {
		return err
	}
	if _, ok := m.s.sessions[sessionID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.sessions, sessionID)
	return nil
}

func ownerEdges(edges map[edge]struct{}, ownerID int64) []int64 {
	ids := make([]int64, 0)
	for e := range edges {
		if e[0] == ownerID {
			ids = append(ids, e[1])
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func attachEdges(edges map[edge]struct{}, ownerID int64, ids []int64) (int, error) {
	for _, id := range ids {
		if _, ok := edges[edge{ownerID, id}]; ok {
			return 0, repository.ErrConflict
		}
	}
	for _, id := range ids {
		edges[edge{ownerID, id}] = struct{}{}
	}
	return len(ids), nil
}

func detachEdges(edges map[edge]struct{}, ownerID int64, ids []int64) int {
	n := 0
	for _, id := range ids {
		if _, ok := edges[edge{ownerID, id}]; ok {
			delete(edges, edge{ownerID, id})
			n++
		}
	}
	return n
}

func values[K comparable, V any](in map[K]V) []V {
	out := make([]V, 0, len(in))
	for _, v := range in {
		out = append(out, v)
	}
	return out
}

var (
	_ port.Transactor           = (*memStore)(nil)
	_ port.PermissionRepository = memPermissions{}
	_ port.RoleRepository       = memRoles{}
	_ port.EndpointRepository   = memEndpoints{}
	_ port.UserRepository       = memUsers{}
	_ port.AdminGrantRepository = memAdmins{}
	_ port.SessionRepository    = memSessions{}
)
