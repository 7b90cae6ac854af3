// Package shooter provides an HTTP client for the image generation job API.
//
// # Overview
//
// The client submits a source image plus generation parameters to the backend job
// queue and checks the status of a queued job. It knows nothing about polling
// cadence or the UI; the app package drives it.
//
// # Endpoints
//
//   - POST /images/generate/: multipart {image, count, mode, user_prompt}. Answers
//     {status:"queued", task_id, new_credits?} or {error} with a non-2xx status.
//   - GET /images/status/{task_id}/: {status: pending|success|error, urls,
//     high_res_urls, message, new_credits}.
//
// # Sessions
//
// The server authenticates with a session cookie and expects the anti-forgery
// token from the csrftoken cookie echoed in the X-CSRFToken header. Both cookies
// are seeded into the client's cookie jar from configuration; the header value is
// always read back from the jar.
//
// # Error Handling
//
// Submit reports every non-accepted submission as a *SubmitError whose Reason is
// safe to show a user. Poll distinguishes transport failures (*PollError) from
// server answers: a garbled or unknown status body becomes a Failed outcome with
// the default message and Malformed set, so a job can never stay pending because
// of an unreadable reply.
//
// # Usage Example
//
//	client, err := shooter.NewClient(shooter.ClientConfig{BaseURL: "https://example.com"})
//	if err != nil {
//		return err
//	}
//	res, err := client.Submit(ctx, req)
//	if err != nil {
//		return err
//	}
//	outcome, err := client.Poll(ctx, res.Handle)
package shooter
