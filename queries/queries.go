// Package queries binds each backend resource to a keyed query or mutation.
//
// Every query wrapper keys its entry as [ENDPOINT, params...], hands the
// request function the fetch's own context as its cancellation handle, and
// applies RefetchOnWindowFocus=false and KeepPreviousData=true. Options passed
// by the caller are merged last and always win.
package queries

import (
	"context"
	"time"

	qc "github.com/unkn0wn-root/querycache"
	"github.com/unkn0wn-root/querycache/api"
)

// Requester is the set of request functions the wrappers call.
// *api.Client implements it.
type Requester interface {
	GetMe(ctx context.Context) (api.Response[api.Provider], error)
	GetAudits(ctx context.Context, p api.AuditsParams) (api.PageResponse[api.Audit], error)
	GetClients(ctx context.Context, p api.ClientsParams) (api.PageResponse[api.Client], error)
	GetAllClients(ctx context.Context, p api.ClientsParams) (api.PageResponse[api.Client], error)
	GetClient(ctx context.Context, id string) (api.Response[api.FullClient], error)
	GetPatients(ctx context.Context, p api.PatientsParams) (api.PageResponse[api.Patient], error)
	GetPatient(ctx context.Context, id string) (api.Response[api.Patient], error)
	GetProvider(ctx context.Context, id string) (api.Response[api.Provider], error)
	GetPostalCodes(ctx context.Context, p api.PostalCodeParams) (api.Response[[]api.PostalCode], error)
	GetStates(ctx context.Context) (api.Response[[]string], error)
	GetAllStates(ctx context.Context) (api.Response[[]api.State], error)
	GetProgram(ctx context.Context, id string) (api.Response[api.Program], error)
	GetConditions(ctx context.Context) (api.PageResponse[api.Condition], error)
	GetPartners(ctx context.Context, p api.PartnersParams) (api.PageResponse[api.Partner], error)
	GetVitals(ctx context.Context, programID string) (api.Response[[]api.Vital], error)
	CreateAudit(ctx context.Context, a api.Audit) (api.Response[api.Audit], error)
}

var _ Requester = (*api.Client)(nil)

const meStaleTime = 5 * time.Second

var (
	base = qc.QueryOptions{
		RefetchOnWindowFocus: qc.Bool(false),
		KeepPreviousData:     qc.Bool(true),
	}
	suspense = base.Merge(qc.QueryOptions{Suspense: qc.Bool(true)})
)

// gated disables the query until id is set.
func gated(o qc.QueryOptions, id string) qc.QueryOptions {
	return o.Merge(qc.QueryOptions{Enabled: qc.Bool(id != "")})
}

type Queries struct {
	c *qc.Client
	r Requester
}

func New(c *qc.Client, r Requester) *Queries {
	return &Queries{c: c, r: r}
}

// Client returns the cache the wrappers run against.
func (q *Queries) Client() *qc.Client { return q.c }

func config[T any](key qc.Key, fn qc.QueryFunc[T], defaults qc.QueryOptions, overrides []qc.QueryOptions) qc.QueryConfig[T] {
	return qc.QueryConfig[T]{Key: key, Fn: fn, Options: defaults.Merge(overrides...)}
}

func key(e api.Endpoint, params ...any) qc.Key {
	return qc.NewKey(e.String(), params...)
}

func (q *Queries) MeConfig(over ...qc.QueryOptions) qc.QueryConfig[api.Response[api.Provider]] {
	o := suspense.Merge(qc.QueryOptions{StaleTime: qc.Duration(meStaleTime)})
	return config(key(api.EndpointMe), q.r.GetMe, o, over)
}

func (q *Queries) Me(ctx context.Context, over ...qc.QueryOptions) *qc.Query[api.Response[api.Provider]] {
	return qc.Run(ctx, q.c, q.MeConfig(over...))
}

func (q *Queries) AuditsConfig(p api.AuditsParams, over ...qc.QueryOptions) qc.QueryConfig[api.PageResponse[api.Audit]] {
	fn := func(ctx context.Context) (api.PageResponse[api.Audit], error) { return q.r.GetAudits(ctx, p) }
	return config(key(api.EndpointAudits, p), fn, suspense, over)
}

func (q *Queries) Audits(ctx context.Context, p api.AuditsParams, over ...qc.QueryOptions) *qc.Query[api.PageResponse[api.Audit]] {
	return qc.Run(ctx, q.c, q.AuditsConfig(p, over...))
}

func (q *Queries) ClientsConfig(p api.ClientsParams, over ...qc.QueryOptions) qc.QueryConfig[api.PageResponse[api.Client]] {
	fn := func(ctx context.Context) (api.PageResponse[api.Client], error) { return q.r.GetClients(ctx, p) }
	return config(key(api.EndpointClients, p), fn, suspense, over)
}

func (q *Queries) Clients(ctx context.Context, p api.ClientsParams, over ...qc.QueryOptions) *qc.Query[api.PageResponse[api.Client]] {
	return qc.Run(ctx, q.c, q.ClientsConfig(p, over...))
}

func (q *Queries) AllClientsConfig(p api.ClientsParams, over ...qc.QueryOptions) qc.QueryConfig[api.PageResponse[api.Client]] {
	fn := func(ctx context.Context) (api.PageResponse[api.Client], error) { return q.r.GetAllClients(ctx, p) }
	return config(key(api.EndpointClientsAll, p), fn, suspense, over)
}

func (q *Queries) AllClients(ctx context.Context, p api.ClientsParams, over ...qc.QueryOptions) *qc.Query[api.PageResponse[api.Client]] {
	return qc.Run(ctx, q.c, q.AllClientsConfig(p, over...))
}

// ClientConfig is gated on id: an empty id never reaches the backend.
func (q *Queries) ClientConfig(id string, over ...qc.QueryOptions) qc.QueryConfig[api.Response[api.FullClient]] {
	fn := func(ctx context.Context) (api.Response[api.FullClient], error) { return q.r.GetClient(ctx, id) }
	return config(key(api.EndpointClients, id), fn, gated(suspense, id), over)
}

func (q *Queries) Client(ctx context.Context, id string, over ...qc.QueryOptions) *qc.Query[api.Response[api.FullClient]] {
	return qc.Run(ctx, q.c, q.ClientConfig(id, over...))
}

func (q *Queries) PatientsConfig(p api.PatientsParams, over ...qc.QueryOptions) qc.QueryConfig[api.PageResponse[api.Patient]] {
	fn := func(ctx context.Context) (api.PageResponse[api.Patient], error) { return q.r.GetPatients(ctx, p) }
	return config(key(api.EndpointPatients, p), fn, suspense, over)
}

func (q *Queries) Patients(ctx context.Context, p api.PatientsParams, over ...qc.QueryOptions) *qc.Query[api.PageResponse[api.Patient]] {
	return qc.Run(ctx, q.c, q.PatientsConfig(p, over...))
}

func (q *Queries) PatientConfig(id string, over ...qc.QueryOptions) qc.QueryConfig[api.Response[api.Patient]] {
	fn := func(ctx context.Context) (api.Response[api.Patient], error) { return q.r.GetPatient(ctx, id) }
	return config(key(api.EndpointPatients, id), fn, gated(suspense, id), over)
}

func (q *Queries) Patient(ctx context.Context, id string, over ...qc.QueryOptions) *qc.Query[api.Response[api.Patient]] {
	return qc.Run(ctx, q.c, q.PatientConfig(id, over...))
}

func (q *Queries) ProviderConfig(id string, over ...qc.QueryOptions) qc.QueryConfig[api.Response[api.Provider]] {
	fn := func(ctx context.Context) (api.Response[api.Provider], error) { return q.r.GetProvider(ctx, id) }
	return config(key(api.EndpointProviders, id), fn, gated(suspense, id), over)
}

func (q *Queries) Provider(ctx context.Context, id string, over ...qc.QueryOptions) *qc.Query[api.Response[api.Provider]] {
	return qc.Run(ctx, q.c, q.ProviderConfig(id, over...))
}

// PostalCodesConfig keys on the zip code alone; an empty zip is still fetched.
func (q *Queries) PostalCodesConfig(zip string, over ...qc.QueryOptions) qc.QueryConfig[api.Response[[]api.PostalCode]] {
	fn := func(ctx context.Context) (api.Response[[]api.PostalCode], error) {
		return q.r.GetPostalCodes(ctx, api.PostalCodeParams{ZipCode: zip})
	}
	return config(key(api.EndpointZipCodes, zip), fn, base, over)
}

func (q *Queries) PostalCodes(ctx context.Context, zip string, over ...qc.QueryOptions) *qc.Query[api.Response[[]api.PostalCode]] {
	return qc.Run(ctx, q.c, q.PostalCodesConfig(zip, over...))
}

func (q *Queries) StatesConfig(over ...qc.QueryOptions) qc.QueryConfig[api.Response[[]string]] {
	return config(key(api.EndpointStates), q.r.GetStates, base, over)
}

func (q *Queries) States(ctx context.Context, over ...qc.QueryOptions) *qc.Query[api.Response[[]string]] {
	return qc.Run(ctx, q.c, q.StatesConfig(over...))
}

func (q *Queries) StatesListConfig(over ...qc.QueryOptions) qc.QueryConfig[api.Response[[]api.State]] {
	return config(key(api.EndpointStatesList), q.r.GetAllStates, suspense, over)
}

func (q *Queries) StatesList(ctx context.Context, over ...qc.QueryOptions) *qc.Query[api.Response[[]api.State]] {
	return qc.Run(ctx, q.c, q.StatesListConfig(over...))
}

func (q *Queries) ProgramConfig(id string, over ...qc.QueryOptions) qc.QueryConfig[api.Response[api.Program]] {
	fn := func(ctx context.Context) (api.Response[api.Program], error) { return q.r.GetProgram(ctx, id) }
	return config(key(api.EndpointPrograms, id), fn, gated(suspense, id), over)
}

func (q *Queries) Program(ctx context.Context, id string, over ...qc.QueryOptions) *qc.Query[api.Response[api.Program]] {
	return qc.Run(ctx, q.c, q.ProgramConfig(id, over...))
}

func (q *Queries) HealthConditionsConfig(over ...qc.QueryOptions) qc.QueryConfig[api.PageResponse[api.Condition]] {
	return config(key(api.EndpointProgramConditions), q.r.GetConditions, base, over)
}

func (q *Queries) HealthConditions(ctx context.Context, over ...qc.QueryOptions) *qc.Query[api.PageResponse[api.Condition]] {
	return qc.Run(ctx, q.c, q.HealthConditionsConfig(over...))
}

func (q *Queries) PartnersConfig(p api.PartnersParams, over ...qc.QueryOptions) qc.QueryConfig[api.PageResponse[api.Partner]] {
	fn := func(ctx context.Context) (api.PageResponse[api.Partner], error) { return q.r.GetPartners(ctx, p) }
	return config(key(api.EndpointAssignee, p), fn, base, over)
}

func (q *Queries) Partners(ctx context.Context, p api.PartnersParams, over ...qc.QueryOptions) *qc.Query[api.PageResponse[api.Partner]] {
	return qc.Run(ctx, q.c, q.PartnersConfig(p, over...))
}

// VitalItemsConfig keys on the program id so two programs never share vitals.
func (q *Queries) VitalItemsConfig(programID string, over ...qc.QueryOptions) qc.QueryConfig[api.Response[[]api.Vital]] {
	fn := func(ctx context.Context) (api.Response[[]api.Vital], error) { return q.r.GetVitals(ctx, programID) }
	return config(key(api.EndpointUnderProgramVital, programID), fn, suspense, over)
}

func (q *Queries) VitalItems(ctx context.Context, programID string, over ...qc.QueryOptions) *qc.Query[api.Response[[]api.Vital]] {
	return qc.Run(ctx, q.c, q.VitalItemsConfig(programID, over...))
}

// CreateAudit returns a mutation posting an audit record. opts pass through
// unchanged; nothing is invalidated unless opts.Invalidates says so.
func (q *Queries) CreateAudit(opts qc.MutationOptions[api.Audit, api.Response[api.Audit]]) *qc.Mutation[api.Audit, api.Response[api.Audit]] {
	return qc.NewMutation(q.c, q.r.CreateAudit, opts)
}
