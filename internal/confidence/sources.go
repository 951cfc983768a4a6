package confidence

// Source identifies where a piece of acceptance evidence came from.
type Source string

const (
	SourceAuthoritativeFeed  Source = "authoritative_feed"
	SourceCarrierFeed        Source = "carrier_feed"
	SourceProviderSelfReport Source = "provider_self_report"
	SourcePhoneCall          Source = "phone_call"
	SourceAutomatedInference Source = "automated_inference"
	SourceCrowdsource        Source = "crowdsource"
)

// AllSources lists every declared source kind. Tests iterate this to keep the
// reliability table exhaustive: a new source added without a weight fails the
// suite instead of silently scoring 0.
var AllSources = []Source{
	SourceAuthoritativeFeed,
	SourceCarrierFeed,
	SourceProviderSelfReport,
	SourcePhoneCall,
	SourceAutomatedInference,
	SourceCrowdsource,
}

// sourceWeights is the source reliability table on a 0-30 scale. The registry
// feed is the most trustworthy; anonymous crowdsource reports the least.
var sourceWeights = map[Source]float64{
	SourceAuthoritativeFeed:  30,
	SourceCarrierFeed:        26,
	SourceProviderSelfReport: 20,
	SourcePhoneCall:          18,
	SourceAutomatedInference: 12,
	SourceCrowdsource:        8,
}

// Weight returns the base reliability weight for a source. Unrecognized or
// absent sources weigh 0 rather than failing; a low score is business signal,
// not an error.
func (s Source) Weight() float64 {
	return sourceWeights[s]
}

// Known reports whether the source is one of the declared kinds.
func (s Source) Known() bool {
	_, ok := sourceWeights[s]
	return ok
}
