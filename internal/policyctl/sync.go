package policyctl

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/core/domain"
	"github.com/Geek-Teck-Mentors/trend-diary-sub001/internal/usecase"
)

// systemActor marks changes made by policyctl in policy audit events.
const systemActor int64 = 0

// PolicyService is the subset of the policy mutation service the sync needs.
type PolicyService interface {
	ListPermissions(ctx context.Context) ([]domain.Permission, error)
	CreatePermission(ctx context.Context, actorID int64, input usecase.CreatePermissionInput) (*domain.Permission, error)
	ListEndpoints(ctx context.Context) ([]domain.Endpoint, error)
	GetEndpoint(ctx context.Context, endpointID int64) (*usecase.EndpointDetail, error)
	CreateEndpoint(ctx context.Context, actorID int64, input usecase.CreateEndpointInput) (*domain.Endpoint, error)
	UpdateEndpointPermissions(ctx context.Context, actorID, endpointID int64, permissionIDs []int64) error
}

var _ PolicyService = (*usecase.PolicyMutationService)(nil)

type Operation string

const (
	OpCreatePermission  Operation = "create permission"
	OpCreateEndpoint    Operation = "create endpoint"
	OpReplaceRequires   Operation = "replace requirements"
	OpUnchangedEndpoint Operation = "unchanged"
)

type Change struct {
	Operation Operation `json:"operation"`
	Target    string    `json:"target"`
	Detail    string    `json:"detail,omitempty"`
}

// SyncReport lists what a sync did, or would do in dry-run mode.
type SyncReport struct {
	DryRun  bool     `json:"dry_run"`
	Changes []Change `json:"changes"`
}

// Mutations counts the changes that alter stored policy.
func (r *SyncReport) Mutations() int {
	n := 0
	for _, c := range r.Changes {
		if c.Operation != OpUnchangedEndpoint {
			n++
		}
	}
	return n
}

func (r *SyncReport) add(op Operation, target, detail string) {
	r.Changes = append(r.Changes, Change{Operation: op, Target: target, Detail: detail})
}

// Print writes one line per change.
func (r *SyncReport) Print(w io.Writer) {
	prefix := ""
	if r.DryRun {
		prefix = "(dry-run) "
	}
	for _, c := range r.Changes {
		if c.Detail != "" {
			_, _ = fmt.Fprintf(w, "%s%s: %s [%s]\n", prefix, c.Operation, c.Target, c.Detail)
		} else {
			_, _ = fmt.Fprintf(w, "%s%s: %s\n", prefix, c.Operation, c.Target)
		}
	}
	_, _ = fmt.Fprintf(w, "%s%d change(s)\n", prefix, r.Mutations())
}

// Sync provisions the permissions and endpoints in doc. Permissions and endpoints are
// only ever added; each listed endpoint has its requirement set replaced as a whole.
// Objects absent from doc are left untouched.
func Sync(ctx context.Context, svc PolicyService, doc *PolicyFile, dryRun bool) (*SyncReport, error) {
	report := &SyncReport{DryRun: dryRun}

	existing, err := svc.ListPermissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	permissionIDs := make(map[string]int64, len(existing))
	for _, p := range existing {
		permissionIDs[p.Name()] = p.ID
	}

	for _, spec := range doc.Permissions {
		if _, ok := permissionIDs[spec.Name()]; ok {
			continue
		}
		report.add(OpCreatePermission, spec.Name(), "")
		if dryRun {
			permissionIDs[spec.Name()] = 0
			continue
		}
		created, err := svc.CreatePermission(ctx, systemActor, usecase.CreatePermissionInput{
			Resource:    spec.Resource,
			Action:      spec.Action,
			Description: spec.Description,
		})
		if err != nil {
			return report, fmt.Errorf("create permission %s: %w", spec.Name(), err)
		}
		permissionIDs[created.Name()] = created.ID
	}

	endpoints, err := svc.ListEndpoints(ctx)
	if err != nil {
		return report, fmt.Errorf("list endpoints: %w", err)
	}
	endpointIDs := make(map[string]int64, len(endpoints))
	for _, e := range endpoints {
		endpointIDs[e.Method+" "+e.Path] = e.ID
	}

	for _, spec := range doc.Endpoints {
		key := spec.key()

		required, err := resolveRequires(spec, permissionIDs)
		if err != nil {
			return report, fmt.Errorf("endpoint %s: %w", key, err)
		}

		id, registered := endpointIDs[key]
		if !registered {
			report.add(OpCreateEndpoint, key, "")
			if !dryRun {
				created, err := svc.CreateEndpoint(ctx, systemActor, usecase.CreateEndpointInput{
					Path:        spec.Path,
					Method:      spec.Method,
					Description: spec.Description,
				})
				if err != nil {
					return report, fmt.Errorf("create endpoint %s: %w", key, err)
				}
				id = created.ID
			}
		} else {
			detail, err := svc.GetEndpoint(ctx, id)
			if err != nil {
				return report, fmt.Errorf("get endpoint %s: %w", key, err)
			}
			if sameRequirements(detail.Permissions, spec.Requires) {
				report.add(OpUnchangedEndpoint, key, "")
				continue
			}
		}

		report.add(OpReplaceRequires, key, fmt.Sprintf("%v", spec.Requires))
		if dryRun {
			continue
		}
		if err := svc.UpdateEndpointPermissions(ctx, systemActor, id, required); err != nil {
			return report, fmt.Errorf("replace requirements of %s: %w", key, err)
		}
	}

	return report, nil
}

func resolveRequires(spec EndpointSpec, permissionIDs map[string]int64) ([]int64, error) {
	ids := make([]int64, 0, len(spec.Requires))
	for _, name := range spec.Requires {
		resource, action, _ := splitPermissionName(name)
		id, ok := permissionIDs[resource+"."+action]
		if !ok {
			return nil, fmt.Errorf("unknown permission %q", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func sameRequirements(current []domain.Permission, requires []string) bool {
	have := make([]string, 0, len(current))
	for _, p := range current {
		have = append(have, p.Name())
	}
	want := make([]string, 0, len(requires))
	for _, name := range requires {
		resource, action, _ := splitPermissionName(name)
		want = append(want, resource+"."+action)
	}
	slices.Sort(have)
	slices.Sort(want)
	return slices.Equal(slices.Compact(have), slices.Compact(want))
}
