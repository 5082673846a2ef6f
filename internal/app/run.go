package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/atmogrid/atmogrid/internal/ctxlog"
	"github.com/atmogrid/atmogrid/internal/loader"
	"github.com/atmogrid/atmogrid/internal/model"
	"github.com/atmogrid/atmogrid/internal/options"
	"github.com/atmogrid/atmogrid/internal/registry"
	"github.com/atmogrid/atmogrid/internal/resolver"
	"github.com/atmogrid/atmogrid/internal/varspec"
)

// Run executes the main application logic: load the job file, build the
// conversion registry, then derive the requested variables (or report on
// them for the diagnostic modes).
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	opts := options.New()

	var job *loader.Job
	if a.config.JobPath != "" {
		var err error
		job, err = a.loader.Load(ctx, a.config.JobPath)
		if err != nil {
			return fmt.Errorf("failed to load job: %w", err)
		}
		// Job-file options first, command-line options override.
		for name, value := range job.Options {
			opts[name] = value
		}
	}
	if err := opts.Add(a.config.Options); err != nil {
		return err
	}

	packs := a.packs
	if len(packs) == 0 {
		packs = corePacks(opts)
	}
	reg := registry.New()
	for _, p := range packs {
		p.Register(reg)
	}
	a.logger.Debug("Conversion registry built.", "packs", len(packs), "targets", reg.Len())
	res := resolver.New(reg)

	if a.config.ListConversions {
		return a.listConversions(ctx, res, job)
	}

	targets := make([]*varspec.Target, 0)
	if job != nil {
		targets = append(targets, job.Targets...)
	}
	if a.config.Derive != "" {
		target, err := varspec.Parse(a.config.Derive)
		if err != nil {
			return err
		}
		targets = append(targets, target)
	}
	if len(targets) == 0 {
		a.logger.Warn("No derivation targets given, nothing to do.")
		return nil
	}

	if a.config.Product != "" {
		if _, ok := job.Product(a.config.Product); !ok {
			return fmt.Errorf("job has no product %q", a.config.Product)
		}
	}

	for _, product := range job.Products {
		if a.config.Product != "" && product.Source != a.config.Product {
			continue
		}
		for _, target := range targets {
			if err := a.runTarget(ctx, res, product, target); err != nil {
				return err
			}
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// runTarget derives (or explains) one target against one product.
func (a *App) runTarget(ctx context.Context, res *resolver.Resolver, product *model.Product, target *varspec.Target) error {
	logger := a.logger.With("product", product.Source, "target", target.String())

	if a.config.Explain {
		logger.Debug("Explaining derivation.")
		return res.Explain(ctx, a.outW, product, target.Name, target.Sig)
	}

	logger.Info("Deriving variable.")
	if err := res.AddDerived(ctx, product, target.Name, target.Unit, target.Sig); err != nil {
		return fmt.Errorf("product %q: %w", product.Source, err)
	}
	derived, _ := product.Variable(target.Name)
	fmt.Fprintf(a.outW, "%s: %s = %s\n", product.Source, derived.String(), formatValues(derived))
	return nil
}

func (a *App) listConversions(ctx context.Context, res *resolver.Resolver, job *loader.Job) error {
	if job == nil || len(job.Products) == 0 {
		return res.ListConversions(ctx, a.outW, nil)
	}
	for _, product := range job.Products {
		if a.config.Product != "" && product.Source != a.config.Product {
			continue
		}
		fmt.Fprintf(a.outW, "conversions possible for product %q:\n", product.Source)
		if err := res.ListConversions(ctx, a.outW, product); err != nil {
			return err
		}
	}
	return nil
}

// formatValues renders a variable's buffer for the report output.
func formatValues(v *model.Variable) string {
	var b strings.Builder
	b.WriteString("[")
	for i := 0; i < v.NumElements(); i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		if v.Type == model.String {
			fmt.Fprintf(&b, "%q", v.Data.(model.Strings)[i])
		} else {
			fmt.Fprintf(&b, "%g", model.Float64At(v.Data, i))
		}
	}
	b.WriteString("]")
	return b.String()
}
