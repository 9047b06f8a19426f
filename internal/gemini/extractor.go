package gemini

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/genai"

	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/core"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/log"
	"github.com/AKASHZENDEKAR/smart-expense-tracker/internal/wire"
)

func receiptPrompt() string {
	names := make([]string, 0, len(core.Categories))
	for _, c := range core.Categories {
		names = append(names, string(c))
	}
	return "You read photographed or scanned shop receipts.\n\n" +
		"Return STRICT JSON only, a single object with these fields:\n" +
		"- \"amount\": number, the grand total paid, or null if unreadable\n" +
		"- \"merchant\": string, the shop name, or null\n" +
		"- \"suggested_category\": string, one of " + strings.Join(names, ", ") + ", or null\n" +
		"- \"date\": string in YYYY-MM-DD format, or null\n\n" +
		"Do not guess values that are not printed on the receipt; use null instead.\n" +
		"Do NOT wrap the response in code fences."
}

func supportedMIME(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.HasPrefix(mimeType, "image/") || mimeType == "application/pdf"
}

// Extract sends the receipt to the model and decodes its best guess.
// Nothing is defaulted: fields the model could not read stay nil.
func (c *Client) Extract(ctx context.Context, data []byte, mimeType string) (core.ReceiptExtraction, error) {
	if len(data) == 0 {
		return core.ReceiptExtraction{}, &core.ExtractionError{Reason: "empty file"}
	}
	if !supportedMIME(mimeType) {
		return core.ReceiptExtraction{}, &core.ExtractionError{Reason: "unsupported file type " + mimeType}
	}

	raw, err := c.generate(ctx,
		&genai.Part{Text: receiptPrompt()},
		&genai.Part{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
	)
	if err != nil {
		c.logger.WarnContext(ctx, "Receipt extraction call failed",
			log.NewFields().WithOperation(log.OpExtract).WithErrorType(log.ErrorTypeExtraction).WithError(err).ToSlice()...)
		return core.ReceiptExtraction{}, &core.ExtractionError{Reason: "extraction service unavailable", Err: err}
	}

	var body wire.Extraction
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &body); err != nil {
		c.logger.WarnContext(ctx, "Unreadable model output", log.FieldError, err.Error())
		return core.ReceiptExtraction{}, &core.ExtractionError{Reason: "could not read the receipt", Err: err}
	}

	c.logger.InfoContext(ctx, "Receipt extracted",
		log.FieldOperation, log.OpExtract, log.FieldMIMEType, mimeType, log.FieldSizeBytes, len(data))
	return body.Core(), nil
}
