package search

import "github.com/poiesic/retrievit/core"

// SearchMonitor provides hooks to observe the pipeline stages.
// Implement this interface to track intermediate candidate lists during a
// search.
type SearchMonitor interface {
	Start(query string)
	AfterRewrite(result core.RewriteResult)
	AfterVectorSearch(candidates []core.CandidateResult)
	AfterLexicalSearch(candidates []core.CandidateResult)
	AfterFusion(results []core.FusedResult)
	AfterBoost(results []core.FusedResult)
	AfterRerank(results []core.RankedResult)
	Finish(results []core.RankedResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                               {}
func (n *noopMonitor) AfterRewrite(_ core.RewriteResult)            {}
func (n *noopMonitor) AfterVectorSearch(_ []core.CandidateResult)   {}
func (n *noopMonitor) AfterLexicalSearch(_ []core.CandidateResult)  {}
func (n *noopMonitor) AfterFusion(_ []core.FusedResult)             {}
func (n *noopMonitor) AfterBoost(_ []core.FusedResult)              {}
func (n *noopMonitor) AfterRerank(_ []core.RankedResult)            {}
func (n *noopMonitor) Finish(_ []core.RankedResult)                 {}
