// Package sdk provides an HTTP client for the studymeter usage
// accounting API.
//
//	client := sdk.New("http://localhost:8080", sdk.WithAPIKey("secret"))
//
//	d, _ := client.Consume(ctx, "user-42", "quiz")
//	if !d.Allowed {
//	    // d.Reason carries a sentinel: errors.Is(d.Reason, sdk.ErrWindowQuotaExceeded)
//	}
//
//	usage, _ := client.Usage(ctx, "user-42")
//	fmt.Println(usage.CurrentStreak, usage.WindowRemaining)
//
// Quota denials on Consume are decisions, not errors: the call succeeds
// and Decision.Allowed is false. The generation endpoints (GenerateQuiz,
// Summarize, HomeworkHelp) surface denials as errors instead, matching
// the API's 429 responses.
package sdk
