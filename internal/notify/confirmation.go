// Package notify composes and delivers customer-facing email.
package notify

import (
	"html/template"
	"strings"

	"github.com/go-faster/errors"
)

// confirmationTmpl is the order confirmation body sent after a verified
// payment.
var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Order Confirmation</title>
</head>
<body>
    <h1>Order Confirmation</h1>
    <p>Thank you for your purchase!</p>
    <p>Order ID: {{.OrderID}}</p>
    <p>Customer Name: {{.CustomerName}}</p>
    <p>Total Amount: {{.Total}}</p>
    <p>Products:</p>
    <ul>
        {{range .ProductNames}}<li>{{.}}</li>{{end}}
    </ul>
</body>
</html>
`))

// Confirmation holds the fields rendered into the confirmation email.
type Confirmation struct {
	OrderID      int64
	CustomerName string
	Total        string
	ProductNames []string
}

// Subject is the confirmation email subject line.
const Subject = "Order Confirmation"

// ComposeConfirmation renders the confirmation email body.
func ComposeConfirmation(c Confirmation) (string, error) {
	var b strings.Builder
	if err := confirmationTmpl.Execute(&b, c); err != nil {
		return "", errors.Wrap(err, "render confirmation template")
	}
	return b.String(), nil
}
