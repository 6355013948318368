// Package dsl 基于 CEL 提供候选物品的条件表达式。
//
// 可用变量：
//   - item.id / item.score / item.category
//   - item.features["collaborative"]、item.features["content"]
//   - label.<key>：物品 Label 的 value（如 label.recall_source）
//   - rctx.user_id / rctx.category / rctx.k
//
// 示例：
//
//	item.category != "News" && item.features["content"] > 0.1
//	"recall.content" in label.recall_source.split("|")
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"

	"github.com/rushteam/resonance/core"
)

var (
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.MapType(cel.StringType, cel.DynType)),
			cel.Variable("label", cel.MapType(cel.StringType, cel.StringType)),
			cel.Variable("rctx", cel.MapType(cel.StringType, cel.DynType)),
			ext.Strings(),
		)
	})
	return celEnv, celEnvErr
}

// Expr 是编译后的表达式，可并发复用。
type Expr struct {
	src string
	prg cel.Program
}

// Compile 编译表达式，要求返回 bool。
func Compile(src string) (*Expr, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: init env: %w", err)
	}
	ast, issues := env.Compile(src)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", src, issues.Err())
	}
	if ast.OutputType() != cel.BoolType && ast.OutputType() != cel.DynType {
		return nil, fmt.Errorf("dsl: expression %q must return bool, got %s", src, ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", src, err)
	}
	return &Expr{src: src, prg: prg}, nil
}

func (e *Expr) String() string { return e.src }

// Evaluate 对单个物品求值。
func (e *Expr) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := e.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", e.src, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression %q returned %T", e.src, out.Value())
	}
	return result, nil
}

// Eval 编译并执行一次表达式；空表达式恒为 true。
func Eval(src string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if src == "" {
		return true, nil
	}
	e, err := Compile(src)
	if err != nil {
		return false, err
	}
	return e.Evaluate(item, rctx)
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]string, len(item.Labels))
	for k, v := range item.Labels {
		labels[k] = v.Value
	}
	features := make(map[string]float64, len(item.Features))
	for k, v := range item.Features {
		features[k] = v
	}
	in := map[string]any{
		"item": map[string]any{
			"id":       item.ID,
			"score":    item.Score,
			"category": item.Category(),
			"features": features,
		},
		"label": labels,
		"rctx":  map[string]any{"user_id": int64(0), "category": "", "k": int64(0)},
	}
	if rctx != nil {
		in["rctx"] = map[string]any{
			"user_id":  rctx.UserID,
			"category": rctx.Category,
			"k":        int64(rctx.K),
		}
	}
	return in
}
