package export

import "time"

// Kind identifies an export artifact format.
type Kind string

const (
	KindSpreadsheet Kind = "xlsx"
	KindDocument    Kind = "pdf"
)

// BaseName prefixes every export filename.
const BaseName = "appointments"

// ParseKind accepts "xlsx"/"excel" and "pdf".
func ParseKind(value string) (Kind, bool) {
	switch value {
	case "xlsx", "excel":
		return KindSpreadsheet, true
	case "pdf":
		return KindDocument, true
	default:
		return "", false
	}
}

// Extension is the file extension without the dot.
func (k Kind) Extension() string {
	return string(k)
}

// ContentType is the MIME type used when handing the artifact to a client.
func (k Kind) ContentType() string {
	switch k {
	case KindSpreadsheet:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case KindDocument:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Filename returns "<BaseName>_<yyyyMMdd>.<ext>" for the calendar day of now.
func Filename(kind Kind, now time.Time) string {
	return BaseName + "_" + now.Format("20060102") + "." + kind.Extension()
}
