// Package api is the HTTP surface of the notification pipeline.
//
// Routes:
//
//	POST /api/changes                                                  submit a listing change (202)
//	POST /api/listings/{listingID}/inquiries                           public inquiry, rate limited per client IP
//	PUT  /api/subscribers/{subscriberID}/listings/{listingID}/notifications
//	PUT  /api/subscribers/{subscriberID}/notifications                 toggle every subscription
//	GET  /api/jobs/stats                                               job counts per state
//	GET  /api/jobs/dead-letter?limit=n                                 dead-letter jobs
//	GET  /api/jobs/{jobID}                                             one job
//	GET  /health/live, /health/ready
//
// Responses use the envelope {"data": ..., "error": {"code", "message", "details"}}.
package api
