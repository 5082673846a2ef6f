// Package loader reads AtmoGrid job files (HCL) into the common variable
// model: products with typed, unit-tagged variables, plus the list of
// derivation targets and conversion options.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/atmogrid/atmogrid/internal/ctxlog"
	"github.com/atmogrid/atmogrid/internal/model"
	"github.com/atmogrid/atmogrid/internal/options"
	"github.com/atmogrid/atmogrid/internal/schema"
	"github.com/atmogrid/atmogrid/internal/varspec"
)

// Job is the loaded form of a job file: the products to harmonize, the
// targets to derive, and the conversion options.
type Job struct {
	Products []*model.Product
	Targets  []*varspec.Target
	Options  options.Set
}

// Product returns the job's product with the given source identifier.
func (j *Job) Product(source string) (*model.Product, bool) {
	for _, p := range j.Products {
		if p.Source == source {
			return p, true
		}
	}
	return nil, false
}

// Loader parses job files.
type Loader struct{}

// New creates a Loader.
func New() *Loader {
	return &Loader{}
}

// Load reads and decodes a job file from disk.
func (l *Loader) Load(ctx context.Context, path string) (*Job, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}
	return l.LoadBytes(ctx, filepath.Base(path), src)
}

// LoadBytes decodes a job file from an in-memory buffer.
func (l *Loader) LoadBytes(ctx context.Context, filename string, src []byte) (*Job, error) {
	logger := ctxlog.FromContext(ctx)

	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, diags)
	}

	var cfg schema.JobConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", filename, diags)
	}

	opts, err := options.Parse(cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	job := &Job{Options: opts}
	for _, pb := range cfg.Products {
		product, err := buildProduct(pb)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		job.Products = append(job.Products, product)
		logger.Debug("Loaded product.", "source", product.Source, "variables", product.Len())
	}
	for _, db := range cfg.Derives {
		target, err := varspec.Parse(db.Target)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		job.Targets = append(job.Targets, target)
	}

	logger.Debug("Job file loaded.", "products", len(job.Products), "targets", len(job.Targets))
	return job, nil
}

// buildProduct assembles one product block: shared dimension lengths first,
// then the variables, whose shapes are validated against them.
func buildProduct(pb *schema.ProductBlock) (*model.Product, error) {
	product := model.NewProduct(pb.Source)

	for _, db := range pb.Dimensions {
		kind, err := model.ParseDimensionType(db.Kind)
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", pb.Source, err)
		}
		if err := product.SetDimensionLength(kind, db.Length); err != nil {
			return nil, err
		}
	}

	for _, vb := range pb.Variables {
		variable, err := buildVariable(product, vb)
		if err != nil {
			return nil, fmt.Errorf("product %q: %w", pb.Source, err)
		}
		if err := product.AddVariable(variable); err != nil {
			return nil, err
		}
	}
	return product, nil
}

// buildVariable materializes one variable block into a typed buffer.
// Independent dimensions take their length from the dims entry, all other
// lengths come from the product's shared per-kind lengths.
func buildVariable(product *model.Product, vb *schema.VariableBlock) (*model.Variable, error) {
	elemType, err := model.ParseDataType(vb.Type)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", vb.Name, err)
	}

	dims := make([]model.DimensionType, 0, len(vb.Dims))
	lengths := make([]int, 0, len(vb.Dims))
	for _, entry := range vb.Dims {
		dim, length, err := varspec.ParseDim(entry)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", vb.Name, err)
		}
		if dim == model.DimIndependent {
			if length < 0 {
				return nil, fmt.Errorf("variable %q: independent dimension needs a length, e.g. independent(2)", vb.Name)
			}
		} else {
			n, ok := product.DimensionLength(dim)
			if !ok {
				return nil, fmt.Errorf("variable %q: product does not declare a length for dimension %s", vb.Name, dim)
			}
			length = n
		}
		dims = append(dims, dim)
		lengths = append(lengths, length)
	}

	variable, err := model.NewVariable(vb.Name, elemType, dims, lengths)
	if err != nil {
		return nil, err
	}
	variable.Unit = vb.Unit

	if err := fillValues(variable, vb.Values); err != nil {
		variable.Release()
		return nil, fmt.Errorf("variable %q: %w", vb.Name, err)
	}
	return variable, nil
}
