// Package statement renders bill statements to PDF.
//
// A Composer fills an HTML template with the statement of one bill group and
// a PDF engine (headless Chrome through chromedp in production) prints the
// page to A4. Renderer ties both together behind the billing application's
// StatementRenderer port.
package statement
