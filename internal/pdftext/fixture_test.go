package pdftext

import (
	"bytes"
	"crypto/md5"
	"crypto/rc4"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
)

// docFixture assembles small uncompressed PDFs. Each page entry is the raw
// content stream; an empty entry yields a page with no /Contents at all.
type docFixture struct {
	pages []string
	// userPassword and ownerPassword switch on the standard security
	// handler (RC4, 128-bit, revision 3).
	userPassword  string
	ownerPassword string
}

var (
	fixturePermissions int32 = -3904
	fixtureID                = []byte("banklens-fixture")
	passwordPad              = []byte("\x28\xbf\x4e\x5e\x4e\x75\x8a\x41\x64\x00\x4e\x56\xff\xfa\x01\x08" +
		"\x2e\x2e\x00\xb6\xd0\x68\x3e\x80\x2f\x0c\xa9\xfe\x64\x53\x69\x7a")
)

func (d docFixture) bytes() []byte {
	var key []byte
	var encrypt string
	if d.ownerPassword != "" {
		var o, u []byte
		key, o, u = securityHandler(d.userPassword, d.ownerPassword)
		encrypt = fmt.Sprintf(" /Encrypt << /Filter /Standard /V 2 /R 3 /Length 128 /P %d /O <%s> /U <%s> >>",
			fixturePermissions, hex.EncodeToString(o), hex.EncodeToString(u))
	}

	var buf bytes.Buffer
	var offsets []int
	object := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}
	stream := func(data string) {
		id := len(offsets) + 1
		if key != nil {
			data = string(rc4Crypt(objectKey(key, id), []byte(data)))
		}
		object(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(data), data))
	}

	buf.WriteString("%PDF-1.4\n")
	kids := make([]string, len(d.pages))
	for i := range d.pages {
		kids[i] = fmt.Sprintf("%d 0 R", 5+2*i)
	}
	object("<< /Type /Catalog /Pages 2 0 R >>")
	object(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(d.pages)))
	object("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding" +
		" /FirstChar 32 /LastChar 126 /Widths [" + strings.Repeat("500 ", 95) + "] >>")
	object("<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding >>")
	for i, content := range d.pages {
		contents := ""
		if content != "" {
			contents = fmt.Sprintf(" /Contents %d 0 R", 6+2*i)
		}
		object("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792]" +
			" /Resources << /Font << /F1 3 0 R /F2 4 0 R >> >>" + contents + " >>")
		stream(content)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	id := hex.EncodeToString(fixtureID)
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R /ID [<%s> <%s>]%s >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, id, id, encrypt, xref)
	return buf.Bytes()
}

func (d docFixture) reader() (*bytes.Reader, int64) {
	data := d.bytes()
	return bytes.NewReader(data), int64(len(data))
}

// rowsAt lays rows out top to bottom with Td moves, 14pt apart.
func rowsAt(font string, rows ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "BT /%s 10 Tf 72 720 Td", font)
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(" 0 -14 Td")
		}
		fmt.Fprintf(&sb, " %s Tj", literal(row))
	}
	sb.WriteString(" ET")
	return sb.String()
}

// cell is one string drawn at an absolute position with Tm.
type cell struct {
	x, y float64
	text string
}

func cellsAt(cells ...cell) string {
	var sb strings.Builder
	sb.WriteString("BT /F1 10 Tf")
	for _, c := range cells {
		fmt.Fprintf(&sb, " 1 0 0 1 %g %g Tm %s Tj", c.x, c.y, literal(c.text))
	}
	sb.WriteString(" ET")
	return sb.String()
}

func literal(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return "(" + r.Replace(s) + ")"
}

func padPassword(pw string) []byte {
	return append([]byte(pw), passwordPad...)[:32]
}

// securityHandler derives the file key and the /O and /U entries.
func securityHandler(user, owner string) (key, o, u []byte) {
	ownerKey := md5.Sum(padPassword(owner))
	for range 50 {
		ownerKey = md5.Sum(ownerKey[:])
	}
	o = rc4Rounds(ownerKey[:], padPassword(user))

	h := md5.New()
	h.Write(padPassword(user))
	h.Write(o)
	h.Write(binary.LittleEndian.AppendUint32(nil, uint32(fixturePermissions)))
	h.Write(fixtureID)
	sum := h.Sum(nil)
	for range 50 {
		next := md5.Sum(sum[:16])
		sum = next[:]
	}
	key = sum[:16]

	check := md5.Sum(append(slices.Clone(passwordPad), fixtureID...))
	u = append(rc4Rounds(key, check[:]), make([]byte, 16)...)
	return key, o, u
}

func rc4Rounds(key, data []byte) []byte {
	out := slices.Clone(data)
	for i := range 20 {
		k := slices.Clone(key)
		for j := range k {
			k[j] ^= byte(i)
		}
		out = rc4Crypt(k, out)
	}
	return out
}

func objectKey(key []byte, id int) []byte {
	sum := md5.Sum(append(slices.Clone(key), byte(id), byte(id>>8), byte(id>>16), 0, 0))
	return sum[:]
}

func rc4Crypt(key, data []byte) []byte {
	c, err := rc4.NewCipher(key)
	if err != nil {
		panic(err)
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}
