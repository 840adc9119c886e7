package jsonata

import (
	"fmt"
	"strings"
)

func evalFuncCall(t funcCall, ctx any, e env) (any, error) {
	args := make([]any, len(t.args))
	for i, a := range t.args {
		v, err := evalNode(a, ctx, e)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch t.name {
	case "sum":
		arr := pickArrayArg(args, ctx)
		var total float64
		for _, v := range arr {
			total += toFloat(v)
		}
		return total, nil
	case "count":
		arr := pickArrayArg(args, ctx)
		return float64(len(arr)), nil
	case "distinct":
		arr := pickArrayArg(args, ctx)
		return distinct(arr), nil
	case "sort":
		arr := pickArrayArg(args, ctx)
		return sortStable(arr), nil
	case "lookup":
		var obj any
		var key string
		if len(args) >= 2 {
			obj, key = args[0], fmt.Sprint(args[1])
		} else if len(args) == 1 {
			obj, key = ctx, fmt.Sprint(args[0])
		} else {
			return nil, fmt.Errorf("jsonata: $lookup requires (object, key) arguments")
		}
		m, ok := obj.(map[string]any)
		if !ok {
			return nil, nil
		}
		return m[key], nil
	case "map":
		return applyMap(args, ctx, e)
	case "filter":
		return applyFilter(args, ctx, e)
	case "join":
		arr := pickArrayArg(args, ctx)
		sep := ""
		if len(args) >= 1 {
			if _, isArr := args[0].([]any); isArr && len(args) >= 2 {
				sep = toDisplayString(args[1])
			} else if !isArr {
				sep = toDisplayString(args[0])
			}
		}
		parts := make([]string, len(arr))
		for i, v := range arr {
			parts[i] = toDisplayString(v)
		}
		return strings.Join(parts, sep), nil
	case "string":
		if len(args) == 0 {
			return toDisplayString(ctx), nil
		}
		return toDisplayString(args[0]), nil
	case "number":
		if len(args) == 0 {
			return toFloat(ctx), nil
		}
		return toFloat(args[0]), nil
	case "exists":
		var v any
		if len(args) > 0 {
			v = args[0]
		} else {
			v = ctx
		}
		return v != nil, nil
	case "not":
		var v any
		if len(args) > 0 {
			v = args[0]
		} else {
			v = ctx
		}
		return !truthy(v), nil
	case "match":
		if len(args) < 2 {
			return nil, fmt.Errorf("jsonata: $match requires (string, pattern) arguments")
		}
		re, err := compileRegex(toDisplayString(args[1]))
		if err != nil {
			return nil, fmt.Errorf("jsonata: $match: %w", err)
		}
		return re.MatchString(toDisplayString(args[0])), nil
	case "uppercase":
		if len(args) == 0 {
			return strings.ToUpper(toDisplayString(ctx)), nil
		}
		return strings.ToUpper(toDisplayString(args[0])), nil
	case "lowercase":
		if len(args) == 0 {
			return strings.ToLower(toDisplayString(ctx)), nil
		}
		return strings.ToLower(toDisplayString(args[0])), nil
	case "keys":
		var v any
		if len(args) > 0 {
			v = args[0]
		} else {
			v = ctx
		}
		m, ok := v.(map[string]any)
		if !ok {
			return nil, nil
		}
		keys := make([]any, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("jsonata: unknown function $%s", t.name)
	}
}

// pickArrayArg returns the argument array for a reduction function
// called either as $sum(expr) or as expr.$sum() (implicit context arg).
func pickArrayArg(args []any, ctx any) []any {
	if len(args) > 0 {
		return asArray(args[0])
	}
	return asArray(ctx)
}

func applyMap(args []any, ctx any, e env) (any, error) {
	var arr []any
	var fn *lambdaFunc
	if len(args) >= 2 {
		arr = asArray(args[0])
		fn, _ = args[1].(*lambdaFunc)
	} else if len(args) == 1 {
		arr = asArray(ctx)
		fn, _ = args[0].(*lambdaFunc)
	}
	if fn == nil {
		return nil, fmt.Errorf("jsonata: $map requires a lambda argument")
	}
	var out []any
	for i, elem := range arr {
		v, err := callLambda(fn, elem, i, e)
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

func applyFilter(args []any, ctx any, e env) (any, error) {
	var arr []any
	var fn *lambdaFunc
	if len(args) >= 2 {
		arr = asArray(args[0])
		fn, _ = args[1].(*lambdaFunc)
	} else if len(args) == 1 {
		arr = asArray(ctx)
		fn, _ = args[0].(*lambdaFunc)
	}
	if fn == nil {
		return nil, fmt.Errorf("jsonata: $filter requires a lambda argument")
	}
	var out []any
	for i, elem := range arr {
		v, err := callLambda(fn, elem, i, e)
		if err != nil {
			return nil, err
		}
		if truthy(v) {
			out = append(out, elem)
		}
	}
	return out, nil
}

func callLambda(fn *lambdaFunc, elem any, index int, outer env) (any, error) {
	bound := env{}
	for k, v := range fn.env {
		bound[k] = v
	}
	if len(fn.params) > 0 {
		bound[fn.params[0]] = elem
	}
	if len(fn.params) > 1 {
		bound[fn.params[1]] = float64(index)
	}
	return evalNode(fn.body, elem, bound)
}
