package handlers

import (
	"github.com/gofiber/fiber/v2"
)

const legalStyle = `<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>`

// LegalHandler serves the policy pages users accept when signing up.
type LegalHandler struct {
	appName      string
	contactEmail string
}

func NewLegalHandler(appName, contactEmail string) *LegalHandler {
	return &LegalHandler{appName: appName, contactEmail: contactEmail}
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - ` + h.appName + `</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
` + legalStyle + `
</head><body>
<h1>Privacy Policy</h1>
<p>Last updated: October 2026</p>
<h2>Information We Collect</h2>
<p>We collect your name, your email address and the details of the documents you declare lost: document type, date, place, description and an optional photo.</p>
<h2>How We Use Your Information</h2>
<p>Declarations are used to help recover lost documents. Administrators of ` + h.appName + ` can read every declaration in order to match it with found documents and to publish anonymous statistics.</p>
<h2>Data Storage</h2>
<p>Your data and photos are stored on our servers. We do not sell your personal information to third parties.</p>
<h2>Deletion</h2>
<p>You can delete any of your declarations from the app at any time. An administrator can delete all of your declarations on request.</p>
<h2>Contact</h2>
<p>For questions about this policy, contact us at ` + h.contactEmail + `</p>
</body></html>`)
}

func (h *LegalHandler) TermsOfService(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Terms of Service - ` + h.appName + `</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
` + legalStyle + `
</head><body>
<h1>Terms of Service</h1>
<p>Last updated: October 2026</p>
<h2>Acceptance</h2>
<p>By using ` + h.appName + `, you agree to these terms.</p>
<h2>Declarations</h2>
<p>You agree to declare only documents that belong to you and to give accurate information. False declarations may be rejected.</p>
<h2>No Guarantee</h2>
<p>` + h.appName + ` does not guarantee that a lost document will be found.</p>
<h2>Termination</h2>
<p>We may suspend accounts that violate these terms.</p>
<h2>Contact</h2>
<p>For questions, contact us at ` + h.contactEmail + `</p>
</body></html>`)
}
