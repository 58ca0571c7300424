package overrides

import (
	"context"
	"slices"
	"sort"

	"github.com/goliatone/go-overrides/layering"
)

// MatchOptions supplies the collaborators criteria may need.
type MatchOptions struct {
	Host   Host
	Custom map[string]CustomCriterion
}

// MatchConfig folds every override whose criteria match params onto
// options.Config, in declaration order. Later matches win key by key and
// non-matching overrides never touch the result. A custom criterion failure
// aborts the call.
func MatchConfig(ctx context.Context, options ParsedOptions, params MatchParams, opts MatchOptions) (ConfigTree, error) {
	config, _, err := MatchConfigWithTrace(ctx, options, params, opts)
	return config, err
}

// MatchConfigWithTrace behaves like MatchConfig and also returns the indexes
// of the overrides that were applied.
func MatchConfigWithTrace(ctx context.Context, options ParsedOptions, params MatchParams, opts MatchOptions) (ConfigTree, []int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	result := layering.Clone(options.Config)
	if result == nil {
		result = ConfigTree{}
	}
	var applied []int
	for i, override := range options.Overrides {
		matched, err := matchCriteria(ctx, override.Criteria, params, opts, i)
		if err != nil {
			return nil, nil, err
		}
		if !matched {
			continue
		}
		result = layering.Merge(result, override.Config)
		applied = append(applied, i)
	}
	return result, applied, nil
}

// OverrideMatches reports whether a single override applies to params.
func OverrideMatches(ctx context.Context, override Override, params MatchParams, opts MatchOptions) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return matchCriteria(ctx, override.Criteria, params, opts, 0)
}

func matchCriteria(ctx context.Context, criteria Criteria, params MatchParams, opts MatchOptions, index int) (bool, error) {
	if !matchBuiltins(criteria, params) {
		return false, nil
	}

	for _, nested := range criteria.All {
		matched, err := matchCriteria(ctx, nested, params, opts, index)
		if err != nil || !matched {
			return false, err
		}
	}

	if criteria.Any != nil {
		matchedAny := false
		for _, nested := range criteria.Any {
			matched, err := matchCriteria(ctx, nested, params, opts, index)
			if err != nil {
				return false, err
			}
			if matched {
				matchedAny = true
				break
			}
		}
		if !matchedAny {
			return false, nil
		}
	}

	if criteria.Not != nil {
		matched, err := matchCriteria(ctx, *criteria.Not, params, opts, index)
		if err != nil || matched {
			return false, err
		}
	}

	return matchCustom(ctx, criteria.Extra, params, opts, index)
}

func matchBuiltins(criteria Criteria, params MatchParams) bool {
	if len(criteria.Level) > 0 {
		if params.Level == nil || !criteria.Level.Matches(*params.Level) {
			return false
		}
	}
	if len(criteria.User) > 0 && !criteria.User.Contains(params.UserID) {
		return false
	}
	if len(criteria.Channel) > 0 && !criteria.Channel.Contains(params.ChannelID) {
		return false
	}
	if len(criteria.Category) > 0 && !criteria.Category.Contains(params.CategoryID) {
		return false
	}
	if len(criteria.Thread) > 0 && !criteria.Thread.Contains(params.ThreadID) {
		return false
	}
	if len(criteria.Role) > 0 && !slices.ContainsFunc(params.MemberRoles, criteria.Role.Contains) {
		return false
	}
	if criteria.IsThread != nil {
		if params.IsThread == nil || *params.IsThread != *criteria.IsThread {
			return false
		}
	}
	return true
}

func matchCustom(ctx context.Context, extra map[string]any, params MatchParams, opts MatchOptions, index int) (bool, error) {
	if len(extra) == 0 {
		return true, nil
	}
	names := make([]string, 0, len(extra))
	for name := range extra {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fn := opts.Custom[name]
		if fn == nil {
			return false, nil
		}
		matched, err := fn(ctx, opts.Host, params, extra[name])
		if err != nil {
			return false, &CriterionError{Name: name, Index: index, Err: err}
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}
