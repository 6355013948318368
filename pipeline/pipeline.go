package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/resonance/core"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链，前一个 Node 的输出是后一个的输入。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Run 依次执行全部 Node。任一 Node 返回错误即终止；
// 中途候选集为空时后续 Node 仍会执行（它们需要能处理空输入）。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("pipeline: node %s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// Append 返回在末尾追加 nodes 的新 Pipeline，原 Pipeline 不变。
func (p *Pipeline) Append(nodes ...Node) *Pipeline {
	out := &Pipeline{Name: p.Name, Nodes: make([]Node, 0, len(p.Nodes)+len(nodes))}
	out.Nodes = append(out.Nodes, p.Nodes...)
	out.Nodes = append(out.Nodes, nodes...)
	return out
}
