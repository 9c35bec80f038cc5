package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/nucleus/resource-core/internal/resource"
)

// Dataset maps a row collection onto one path under the service base
// URL. Reads walk GET <path>?offset=&limit= to exhaustion; writes ship
// the whole batch as a JSON array in a single request, so the server
// applies it atomically or rejects it whole:
//
//	POST   <path>          create
//	PATCH  <path>          update, responds {items: matched}
//	PUT    <path>          upsert
//	POST   <path>/delete   delete, responds {items: deleted}
//	DELETE <path>          purge
//	POST   <path>/rename   rename, body {to: newName}
//	GET    /               list collections
//
// With a watermark column configured, incremental reads pass the last
// watermark as an updatedSince query parameter and the server returns
// only newer rows.
type Dataset struct {
	*resource.DatasetBase
}

const defaultSinceKey = "updatedSince"

// NewDataset builds a REST dataset bound to service. The collection
// name is required and becomes the endpoint path.
func NewDataset(service resource.LinkedService, settings resource.Settings) (*Dataset, error) {
	svc, ok := service.(*LinkedService)
	if !ok {
		return nil, resource.New(resource.KindServiceMismatch, "rest datasets require a rest linked service")
	}
	name := settings.Name()
	if name == "" {
		return nil, resource.New(resource.KindValidation, "collection name is required").
			WithDetail("setting", resource.SettingName)
	}
	ckptCol := settings.String(resource.SettingCheckpointColumn, "checkpoint_column")
	caps := resource.Capabilities{
		SupportsCheckpoint: ckptCol != "" && settings.Bool(true, resource.SettingSupportsCheckpoint),
		MaxInputRows:       settings.Int(0, resource.SettingMaxInputRows),
		Operations:         settings.Operations(),
	}
	sinceKey := settings.String("sinceKey", "since_key")
	if sinceKey == "" {
		sinceKey = defaultSinceKey
	}
	ops := &operations{
		svc:      svc,
		name:     name,
		ckptCol:  ckptCol,
		sinceKey: sinceKey,
		pager: OffsetPager{
			Path:      url.PathEscape(name),
			OffsetKey: settings.String("offsetKey", "offset_key"),
			LimitKey:  settings.String("limitKey", "limit_key"),
			ItemsKey:  settings.String("itemsKey", "items_key"),
			TotalKey:  settings.String("totalKey", "total_key"),
			PageSize:  settings.Int(defaultPageSize, "pageSize", "page_size"),
		},
	}
	return &Dataset{
		DatasetBase: resource.NewDatasetBase(
			resource.NewInfo(Kind, Version, name),
			settings, svc, caps, ops,
		),
	}, nil
}

// operations resolves the client through the linked service on every
// call, so a reconnected service takes effect immediately.
type operations struct {
	svc      *LinkedService
	name     string
	ckptCol  string
	sinceKey string
	pager    OffsetPager
}

func (o *operations) path() string { return o.pager.Path }

func (o *operations) itemsKey() string { return o.pager.ItemsKey }

func (o *operations) Read(ctx context.Context, st *resource.State) error {
	client, err := o.svc.Client()
	if err != nil {
		return err
	}
	pager := o.pager
	if wm, ok := st.Checkpoint()["watermark"]; ok && wm != nil {
		pager.Extra = url.Values{o.sinceKey: []string{fmt.Sprintf("%v", wm)}}
	}
	rows, err := pager.FetchAll(ctx, client)
	if err != nil {
		return wrapErr(resource.MethodRead, err, "read failed")
	}
	st.SetOutput(rows)
	if o.ckptCol == "" {
		return nil
	}
	// The server already filtered to rows past the watermark, so the
	// largest value in this batch is the new high point. An empty
	// increment leaves the checkpoint where it was.
	if max := resource.MaxColumn(rows, o.ckptCol); max != nil {
		st.SetCheckpoint(resource.Checkpoint{"watermark": max})
	}
	return nil
}

func (o *operations) Create(ctx context.Context, st *resource.State) error {
	client, err := o.svc.Client()
	if err != nil {
		return err
	}
	resp, err := client.SendJSON(ctx, http.MethodPost, o.path(), st.Input())
	if err != nil {
		return wrapErr(resource.MethodCreate, err, "create failed")
	}
	// The server may echo the created rows with assigned fields.
	if rows, ok := decodeItems(resp, o.itemsKey()); ok {
		st.SetOutput(rows)
	}
	return nil
}

func (o *operations) Update(ctx context.Context, st *resource.State) error {
	client, err := o.svc.Client()
	if err != nil {
		return err
	}
	resp, err := client.SendJSON(ctx, http.MethodPatch, o.path(), st.Input())
	if err != nil {
		return wrapErr(resource.MethodUpdate, err, "update failed")
	}
	if rows, ok := decodeItems(resp, o.itemsKey()); ok {
		st.SetOutput(rows)
	}
	return nil
}

func (o *operations) Upsert(ctx context.Context, st *resource.State) error {
	client, err := o.svc.Client()
	if err != nil {
		return err
	}
	resp, err := client.SendJSON(ctx, http.MethodPut, o.path(), st.Input())
	if err != nil {
		return wrapErr(resource.MethodUpsert, err, "upsert failed")
	}
	if rows, ok := decodeItems(resp, o.itemsKey()); ok {
		st.SetOutput(rows)
	}
	return nil
}

func (o *operations) Delete(ctx context.Context, st *resource.State) error {
	client, err := o.svc.Client()
	if err != nil {
		return err
	}
	resp, err := client.SendJSON(ctx, http.MethodPost, o.path()+"/delete", st.Input())
	if err != nil {
		return wrapErr(resource.MethodDelete, err, "delete failed")
	}
	if rows, ok := decodeItems(resp, o.itemsKey()); ok {
		st.SetOutput(rows)
	}
	return nil
}

func (o *operations) Purge(ctx context.Context, st *resource.State) error {
	client, err := o.svc.Client()
	if err != nil {
		return err
	}
	if _, err := client.SendJSON(ctx, http.MethodDelete, o.path(), nil); err != nil {
		// An absent collection is already purged.
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil
		}
		return wrapErr(resource.MethodPurge, err, "purge failed")
	}
	return nil
}

func (o *operations) List(ctx context.Context, st *resource.State) error {
	client, err := o.svc.Client()
	if err != nil {
		return err
	}
	resp, err := client.Get(ctx, "", nil)
	if err != nil {
		return wrapErr(resource.MethodList, err, "list failed")
	}
	rows, _ := decodeItems(resp, o.itemsKey())
	st.SetOutput(rows)
	return nil
}

func (o *operations) Rename(ctx context.Context, st *resource.State, newName string) error {
	client, err := o.svc.Client()
	if err != nil {
		return err
	}
	body := map[string]string{"to": newName}
	if _, err := client.SendJSON(ctx, http.MethodPost, o.path()+"/rename", body); err != nil {
		return wrapErr(resource.MethodRename, err, "rename failed")
	}
	return nil
}

func (o *operations) Close() error { return nil }

// wrapErr folds a transport or HTTP-status failure into the taxonomy.
// Cross-method statuses (auth, permission, validation, not found) keep
// their shared kind; anything else carries the method's kind. A rename
// against a missing source reports the rename kind; the absent
// collection is the failure the caller asked about.
func wrapErr(method resource.Method, err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := resource.AsError(err); ok {
		return err
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		kind := statusKind(httpErr.StatusCode)
		if method == resource.MethodRename && kind == resource.KindNotFound {
			kind = resource.KindRename
		}
		if kind == "" {
			kind = resource.KindForMethod(method)
		}
		return resource.Wrap(kind, err, msg).
			WithDetail("status", httpErr.StatusCode)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return resource.Wrap(resource.KindConnection, err, msg)
	}
	return resource.Wrap(resource.KindForMethod(method), err, msg)
}

// statusKind maps an HTTP status to the kind it means for every method,
// or "" when the status is method-specific.
func statusKind(status int) resource.Kind {
	switch {
	case status == http.StatusBadRequest:
		return resource.KindValidation
	case status == http.StatusUnauthorized:
		return resource.KindAuthentication
	case status == http.StatusForbidden:
		return resource.KindPermission
	case status == http.StatusNotFound:
		return resource.KindNotFound
	case status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented:
		return resource.KindNotSupported
	case status == http.StatusTooManyRequests:
		return resource.KindConnection
	case status >= http.StatusBadGateway && status <= http.StatusGatewayTimeout:
		return resource.KindConnection
	default:
		return ""
	}
}

// classifyHTTP folds a connect-path failure into the connection family:
// credentials problems keep their own kind, everything else is a
// connection failure.
func classifyHTTP(err error, msg string) error {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusUnauthorized:
			return resource.Wrap(resource.KindAuthentication, err, msg)
		case http.StatusForbidden:
			return resource.Wrap(resource.KindPermission, err, msg)
		}
	}
	return resource.Wrap(resource.KindConnection, err, msg)
}
