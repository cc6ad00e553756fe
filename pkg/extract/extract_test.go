package extract_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/spheronhq/iclgen/pkg/extract"
)

var _ = Describe("Document", func() {
	It("extracts a tagged YAML block surrounded by prose", func() {
		raw := "Here is your configuration:\n\n```yaml\nversion: \"1.0\"\nservices:\n  web:\n    image: nginx:1.25\n```\n\nLet me know if you need changes."

		doc, text, err := extract.Document(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc).To(HaveKey("version"))
		Expect(doc).To(HaveKey("services"))
		Expect(text).To(HavePrefix("version:"))
	})

	It("accepts the yml tag and mixed case", func() {
		raw := "```YML\nversion: \"1.0\"\nservices: {web: {image: nginx}}\n```"

		doc, _, err := extract.Document(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc["version"]).To(Equal("1.0"))
	})

	It("falls back to the first untagged block that parses as a mapping", func() {
		raw := "```\nnot yaml: [unclosed\n```\nsome prose\n```\nversion: \"1.0\"\nservices: {}\n```"

		doc, _, err := extract.Document(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc["version"]).To(Equal("1.0"))
	})

	It("uses only the first tagged block when multiple exist", func() {
		raw := "```yaml\nversion: \"first\"\nservices: {}\n```\n```yaml\nversion: \"second\"\nservices: {}\n```"

		doc, _, err := extract.Document(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc["version"]).To(Equal("first"))
	})

	It("accepts a bare YAML reply with no fence at all", func() {
		raw := "version: \"1.0\"\nservices:\n  web:\n    image: nginx:1.25\n"

		doc, _, err := extract.Document(raw)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc).To(HaveKey("services"))
	})

	It("fails with ErrNoYAMLBlock on plain prose", func() {
		_, _, err := extract.Document("I'm sorry, I can't generate that configuration.")
		Expect(err).To(MatchError(extract.ErrNoYAMLBlock{}))
	})

	It("fails with ErrYAMLSyntax when the tagged block does not parse", func() {
		raw := "```yaml\nversion: \"1.0\"\n  services: [unclosed\n```"

		_, _, err := extract.Document(raw)
		var syntaxErr extract.ErrYAMLSyntax
		Expect(err).To(BeAssignableToTypeOf(syntaxErr))
	})

	It("reports the line of the syntax error", func() {
		raw := "```yaml\nversion: \"1.0\"\nservices: {broken\n```"

		_, _, err := extract.Document(raw)
		Expect(err).To(HaveOccurred())
		syntaxErr, ok := err.(extract.ErrYAMLSyntax)
		Expect(ok).To(BeTrue())
		Expect(syntaxErr.Line).To(BeNumerically(">", 0))
	})

	It("rejects a tagged block whose content is a scalar, not a mapping", func() {
		raw := "```yaml\njust a sentence\n```"

		_, _, err := extract.Document(raw)
		Expect(err).To(HaveOccurred())
	})

	Describe("round-trip", func() {
		It("reconstructs a tree equal to the original document", func() {
			original := map[string]any{
				"version": "1.0",
				"services": map[string]any{
					"web": map[string]any{
						"image": "node:18",
						"ports": []any{map[string]any{"port": 3000}},
					},
				},
			}

			encoded, err := yaml.Marshal(original)
			Expect(err).NotTo(HaveOccurred())

			doc, _, err := extract.Document("```yaml\n" + string(encoded) + "```")
			Expect(err).NotTo(HaveOccurred())
			Expect(doc).To(Equal(original))
		})
	})
})
