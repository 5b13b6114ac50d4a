// Package msgtemplate renders outbound SMS and KakaoTalk message templates
// against spreadsheet rows.
//
// Templates reference row columns with #{column} placeholders. Rendering is a
// pure function: every substituted value is sanitized (control characters
// stripped, HTML special characters escaped, script URL schemes and ${
// interpolation markers removed), the whole message is sanitized once more,
// and the result is capped to a configured length.
//
// Placeholders that name an invalid column, or a column outside the optional
// allow-list, are left verbatim in the output and reported as warnings. They
// never abort a render. The only error Render returns for well formed options
// is ErrTemplateTooLong, which signals that the caller skipped
// ValidateTemplate.
//
//	msg, err := msgtemplate.Render("안녕하세요 #{이름}님", row,
//	    msgtemplate.WithAllowedColumns("이름", "주소"),
//	)
//
// CalculateMessageBytes and ClassifyMessage estimate the carrier billing tier
// for a rendered message without modifying it.
package msgtemplate
