package intake

import "solarintake/internal/cep"

// FormatCPF masks a tax id as 000.000.000-00 as the digits come in.
func FormatCPF(v string) string {
	d := cep.Digits(v)
	if len(d) > 11 {
		d = d[:11]
	}

	switch {
	case len(d) <= 3:
		return d
	case len(d) <= 6:
		return d[:3] + "." + d[3:]
	case len(d) <= 9:
		return d[:3] + "." + d[3:6] + "." + d[6:]
	default:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	}
}

// FormatPhone masks a phone as (00) 00000-0000, or (00) 0000-0000 for
// ten digit land lines.
func FormatPhone(v string) string {
	d := cep.Digits(v)
	if len(d) > 11 {
		d = d[:11]
	}

	switch {
	case len(d) == 0:
		return ""
	case len(d) <= 2:
		return "(" + d
	case len(d) <= 6:
		return "(" + d[:2] + ") " + d[2:]
	case len(d) <= 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	default:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
}
