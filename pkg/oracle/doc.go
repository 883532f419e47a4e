/*
Package oracle defines the ContentOracle collaborator contract: chat and
image generation reachable from scripts via game.llm_chat/game.llm_image.
mudforge never implements a concrete LLM provider — Oracle is the
interface a deployment supplies — but it does own the caller-side rate
limit spec §6.4 specifies (60 calls/min per session) via a
golang.org/x/time/rate token bucket per session.

# Usage

	lim := oracle.NewLimiter(myProvider)
	text, err := lim.Chat(ctx, sessionID, messages, oracle.TierFast)

# See Also

  - pkg/hostapi, which charges the per-execution oracle-call budget
    before calling through a Limiter
*/
package oracle
