// Package email is the delivery channel for listing notifications.
//
// A Message names a template kind from the Catalog, the recipient and the
// template model. Two Sender implementations are provided:
//
//   - PostmarkSender sends through Postmark's templated email API, resolving the
//     Postmark template alias from the Catalog
//   - DevSender renders the message locally with templ and writes the HTML body
//     and a JSON metadata file to a directory
//
// Both validate the message before sending. Delivery failures wrap
// ErrFailedToSend so callers can treat them uniformly.
//
// # Usage
//
//	catalog, _ := email.DefaultCatalog()
//	sender, err := email.NewPostmarkSender(cfg, catalog)
//	if err != nil {
//	    return err
//	}
//
//	id, err := sender.Send(ctx, email.Message{
//	    Template: "inventory_change",
//	    To:       "buyer@example.com",
//	    Data:     map[string]any{"listing_title": "Angus bull straws"},
//	})
//
// # Templates
//
// The catalog is YAML. The embedded default lives in catalog.yaml and can be
// replaced with LoadCatalog:
//
//	templates:
//	  inventory_change:
//	    alias: listing-inventory-change
//	    subject: "Inventory update: {{listing_title}}"
package email
