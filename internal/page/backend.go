package page

import (
	"context"

	"github.com/noah-isme/sma-adp-console/internal/catalog"
	"github.com/noah-isme/sma-adp-console/internal/models"
	"github.com/noah-isme/sma-adp-console/pkg/bulkaction"
	appErrors "github.com/noah-isme/sma-adp-console/pkg/errors"
	"github.com/noah-isme/sma-adp-console/pkg/export"
)

// backend maps bulk requests onto upstream calls, or renders exports locally.
type backend struct {
	c *Container
}

func (b backend) Execute(ctx context.Context, req bulkaction.Request) (*bulkaction.Response, error) {
	c := b.c
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if req.Kind == bulkaction.KindExport {
		return b.export(ctx, req)
	}

	if action, ok := req.Payload[catalog.PayloadSoftDelete].(string); ok && len(req.TargetIDs) == 1 {
		reason, _ := req.Payload[catalog.PayloadReason].(string)
		err := c.upstream.SoftDelete(ctx, c.desc.Endpoint, req.TargetIDs[0], models.SoftDeleteRequest{
			Reason: reason,
			Action: models.SoftDeleteAction(action),
		})
		if err != nil {
			return nil, err
		}
		return &bulkaction.Response{}, nil
	}

	var (
		res *models.BulkResult
		err error
	)
	if req.Kind == bulkaction.KindDelete {
		res, err = c.upstream.BulkDelete(ctx, c.desc.Endpoint, req.TargetIDs)
	} else {
		res, err = c.upstream.BulkPatch(ctx, c.desc.Endpoint, models.BulkPatchRequest{
			IDs:    req.TargetIDs,
			Action: string(req.Kind),
			Data:   req.Payload,
		})
	}
	if err != nil {
		return nil, err
	}
	return toResponse(res)
}

func (b backend) export(ctx context.Context, req bulkaction.Request) (*bulkaction.Response, error) {
	c := b.c
	if c.exporter == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export is not configured")
	}
	rows := c.rows(req.TargetIDs)
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "nothing to export")
	}
	format := export.FormatCSV
	if raw, ok := req.Payload[catalog.PayloadFormat].(string); ok && raw != "" {
		parsed, err := export.ParseFormat(raw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		format = parsed
	}
	artifact, err := c.exporter.Export(ctx, ExportRequest{
		Page:    c.desc.Name,
		Title:   c.desc.Title,
		Format:  format,
		Columns: c.desc.Columns(req.Payload),
		Rows:    rows,
	})
	if err != nil {
		return nil, err
	}
	return &bulkaction.Response{Artifact: artifact}, nil
}

// toResponse treats success=false without per-id failures as a total failure.
func toResponse(res *models.BulkResult) (*bulkaction.Response, error) {
	if res == nil {
		return &bulkaction.Response{}, nil
	}
	if !res.Success && len(res.Failed) == 0 {
		return nil, appErrors.Clone(appErrors.ErrUpstream, res.Message)
	}
	out := &bulkaction.Response{Message: res.Message}
	for _, f := range res.Failed {
		out.Failed = append(out.Failed, bulkaction.Failure{ID: f.ID, Reason: f.Reason})
	}
	return out, nil
}
