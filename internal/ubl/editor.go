package ubl

import (
	"encoding/base64"

	"github.com/beevik/etree"

	"github.com/rezonia/einvoice-clearance/internal/model"
)

// Well-known AdditionalDocumentReference identifiers.
const (
	// RefQR tags the attachment carrying the signer-provided QR payload.
	RefQR = "QR"
	// RefPIH tags the previous-invoice-hash chaining reference.
	RefPIH = "PIH"
)

// ExtractQR scans the document's reference list for the QR carrier and
// returns its embedded binary content. A document without a QR reference is
// not an error: ok is false and the caller decides what that means.
func ExtractQR(data []byte) (qr []byte, ok bool, err error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, false, model.NewParseError("xml", "malformed document", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, false, model.NewParseError("xml", "empty document", nil)
	}

	ref := findDocumentReference(root, RefQR)
	if ref == nil {
		return nil, false, nil
	}
	payload := embeddedObjectText(ref)
	if payload == "" {
		return nil, false, nil
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, false, model.NewEncodingError("QR attachment is not valid base64", err)
	}
	return decoded, true, nil
}

// EmbedQR places an externally supplied QR payload into the document's
// reference list, replacing an existing QR reference in place or inserting a
// new one at the schema-mandated position. Sibling order is preserved.
func EmbedQR(data, qr []byte) ([]byte, error) {
	return upsertDocumentReference(data, RefQR, base64.StdEncoding.EncodeToString(qr))
}

// InjectPIH places the previous-invoice-hash chaining reference into the
// document. The digest is stored as-is; it is already a base64-encoded
// SHA-256 value.
func InjectPIH(data []byte, digest string) ([]byte, error) {
	return upsertDocumentReference(data, RefPIH, digest)
}

func upsertDocumentReference(data []byte, id, payload string) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, model.NewParseError("xml", "malformed document", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, model.NewParseError("xml", "empty document", nil)
	}

	if ref := findDocumentReference(root, id); ref != nil {
		setEmbeddedObjectText(ref, payload)
	} else {
		insertDocumentReference(root, id, payload)
	}

	doc.Indent(2)
	return doc.WriteToBytes()
}

// findDocumentReference matches on local names so documents from other
// producers (different prefixes) are handled too.
func findDocumentReference(root *etree.Element, id string) *etree.Element {
	for _, el := range root.ChildElements() {
		if el.Tag != "AdditionalDocumentReference" {
			continue
		}
		for _, child := range el.ChildElements() {
			if child.Tag == "ID" && child.Text() == id {
				return el
			}
		}
	}
	return nil
}

func embeddedObjectText(ref *etree.Element) string {
	for _, child := range ref.ChildElements() {
		if child.Tag != "Attachment" {
			continue
		}
		for _, obj := range child.ChildElements() {
			if obj.Tag == "EmbeddedDocumentBinaryObject" {
				return obj.Text()
			}
		}
	}
	return ""
}

func setEmbeddedObjectText(ref *etree.Element, payload string) {
	for _, child := range ref.ChildElements() {
		if child.Tag != "Attachment" {
			continue
		}
		for _, obj := range child.ChildElements() {
			if obj.Tag == "EmbeddedDocumentBinaryObject" {
				obj.SetText(payload)
				return
			}
		}
	}
	attachment := ref.CreateElement("cac:Attachment")
	obj := attachment.CreateElement("cbc:EmbeddedDocumentBinaryObject")
	obj.CreateAttr("mimeCode", "text/plain")
	obj.SetText(payload)
}

// appendDocumentReference adds a reference at the current build position.
// Build calls it before any party, total or line element exists, so plain
// appending lands it in the schema-mandated slot.
func appendDocumentReference(root *etree.Element, id, payload string) {
	ref := root.CreateElement("cac:AdditionalDocumentReference")
	idEl := ref.CreateElement("cbc:ID")
	idEl.SetText(id)
	setEmbeddedObjectText(ref, payload)
}

// insertDocumentReference places a new reference directly before the first
// party/total/line element, where downstream schema validation expects it.
func insertDocumentReference(root *etree.Element, id, payload string) {
	ref := etree.NewElement("cac:AdditionalDocumentReference")
	idEl := ref.CreateElement("cbc:ID")
	idEl.SetText(id)
	setEmbeddedObjectText(ref, payload)

	anchor := firstStructuralElement(root)
	if anchor == nil {
		root.AddChild(ref)
		return
	}
	for i, token := range root.Child {
		if el, isElement := token.(*etree.Element); isElement && el == anchor {
			root.InsertChildAt(i, ref)
			return
		}
	}
	root.AddChild(ref)
}

func firstStructuralElement(root *etree.Element) *etree.Element {
	for _, el := range root.ChildElements() {
		switch el.Tag {
		case "AccountingSupplierParty", "AccountingCustomerParty", "TaxTotal", "LegalMonetaryTotal", "InvoiceLine", "Signature":
			return el
		}
	}
	return nil
}
