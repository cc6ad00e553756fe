package icl_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/spheronhq/iclgen/pkg/icl"
)

// parse decodes test YAML into the document tree form the validator consumes.
func parse(text string) map[string]any {
	var doc map[string]any
	Expect(yaml.Unmarshal([]byte(text), &doc)).To(Succeed())
	return doc
}

const validDocument = `
version: "1.0"
services:
  web:
    image: node:18
    ports:
      - port: 3000
        as: 80
    env:
      - NODE_ENV=production
    scaling:
      min: 2
      max: 5
profiles:
  compute:
    web:
      resources:
        cpu:
          units: 2
        memory:
          size: "2Gi"
        storage:
          size: "10Gi"
deployment:
  web:
    westcoast:
      profile: web
      count: 2
`

var _ = Describe("Validate", func() {
	var schema *icl.Schema

	BeforeEach(func() {
		schema = icl.DefaultSchema()
	})

	Describe("valid documents", func() {
		It("accepts a complete document with no errors", func() {
			result := schema.Validate(parse(validDocument))
			Expect(result.OK).To(BeTrue())
			Expect(result.Errors).To(BeEmpty())
		})

		It("accepts a minimal document", func() {
			result := schema.Validate(parse(`
version: "1.0"
services:
  app:
    image: nginx:1.25
`))
			Expect(result.OK).To(BeTrue())
			Expect(result.Errors).To(BeEmpty())
		})

		It("is deterministic for the same input", func() {
			doc := parse(validDocument)
			first := schema.Validate(doc)
			second := schema.Validate(doc)
			Expect(second).To(Equal(first))
		})

		It("does not reject undocumented fields at open positions", func() {
			result := schema.Validate(parse(`
version: "1.0"
services:
  app:
    image: nginx:1.25
    expose_via: cdn
annotations:
  team: infra
`))
			Expect(result.OK).To(BeTrue())
		})
	})

	Describe("required top-level keys", func() {
		It("reports a missing version at its own path", func() {
			result := schema.Validate(parse(`
services:
  app:
    image: nginx:1.25
`))
			Expect(result.OK).To(BeFalse())
			Expect(result.Errors).To(HaveLen(1))
			Expect(result.Errors[0].Path).To(Equal("version"))
		})

		It("reports a missing services key without unrelated errors", func() {
			result := schema.Validate(parse(`version: "1.0"`))
			Expect(result.OK).To(BeFalse())
			Expect(result.Errors).To(HaveLen(1))
			Expect(result.Errors[0].Path).To(Equal("services"))
		})

		It("reports an empty document", func() {
			result := schema.Validate(nil)
			Expect(result.OK).To(BeFalse())
		})
	})

	Describe("services", func() {
		It("rejects an empty services mapping", func() {
			result := schema.Validate(parse(`
version: "1.0"
services: {}
`))
			Expect(result.OK).To(BeFalse())
			Expect(result.Errors[0].Path).To(Equal("services"))
		})

		It("requires an image per service", func() {
			result := schema.Validate(parse(`
version: "1.0"
services:
  web:
    ports:
      - port: 80
`))
			Expect(result.OK).To(BeFalse())
			Expect(result.Errors).To(HaveLen(1))
			Expect(result.Errors[0].Path).To(Equal("services.web.image"))
		})

		It("rejects out-of-range ports with an indexed path", func() {
			result := schema.Validate(parse(`
version: "1.0"
services:
  web:
    image: nginx:1.25
    ports:
      - port: 80
      - port: 70000
`))
			Expect(result.OK).To(BeFalse())
			Expect(result.Errors).To(HaveLen(1))
			Expect(result.Errors[0].Path).To(Equal("services.web.ports[1].port"))
		})

		It("rejects malformed env entries", func() {
			result := schema.Validate(parse(`
version: "1.0"
services:
  web:
    image: nginx:1.25
    env:
      - NODE_ENV=production
      - just-a-word
`))
			Expect(result.OK).To(BeFalse())
			Expect(result.Errors[0].Path).To(Equal("services.web.env[1]"))
		})
	})

	Describe("resources", func() {
		It("rejects a memory size without a recognized unit suffix", func() {
			result := schema.Validate(parse(`
version: "1.0"
services:
  web:
    image: nginx:1.25
profiles:
  compute:
    web:
      resources:
        memory:
          size: "2 gigabytes"
`))
			Expect(result.OK).To(BeFalse())
			Expect(result.Errors).To(HaveLen(1))
			Expect(result.Errors[0].Path).To(Equal("profiles.compute.web.resources.memory.size"))
		})

		It("reports unknown keys because resources is closed", func() {
			result := schema.Validate(parse(`
version: "1.0"
services:
  web:
    image: nginx:1.25
profiles:
  compute:
    web:
      resources:
        memmory:
          size: "2Gi"
`))
			Expect(result.OK).To(BeFalse())
			Expect(result.Errors[0].Path).To(Equal("profiles.compute.web.resources.memmory"))
		})

		It("rejects non-positive cpu units", func() {
			result := schema.Validate(parse(`
version: "1.0"
services:
  web:
    image: nginx:1.25
profiles:
  compute:
    web:
      resources:
        cpu:
          units: 0
`))
			Expect(result.OK).To(BeFalse())
			Expect(result.Errors[0].Path).To(Equal("profiles.compute.web.resources.cpu.units"))
		})
	})

	Describe("cross-field consistency", func() {
		It("reports scaling min > max with a single error at the scaling path", func() {
			result := schema.Validate(parse(`
version: "1.0"
services:
  web:
    image: nginx:1.25
    scaling:
      min: 5
      max: 2
`))
			Expect(result.OK).To(BeFalse())
			Expect(result.Errors).To(HaveLen(1))
			Expect(result.Errors[0].Path).To(Equal("services.web.scaling"))
		})

		It("reports a deployment referencing an undefined service", func() {
			result := schema.Validate(parse(`
version: "1.0"
services:
  web:
    image: nginx:1.25
deployment:
  api:
    west:
      count: 1
`))
			Expect(result.OK).To(BeFalse())
			Expect(result.Errors[0].Path).To(Equal("deployment.api"))
		})

		It("reports a deployment referencing an undefined compute profile", func() {
			result := schema.Validate(parse(`
version: "1.0"
services:
  web:
    image: nginx:1.25
profiles:
  compute:
    web:
      resources:
        cpu:
          units: 1
deployment:
  web:
    west:
      profile: gpu-heavy
`))
			Expect(result.OK).To(BeFalse())
			Expect(result.Errors[0].Path).To(Equal("deployment.web.west.profile"))
		})

		It("rejects a non-positive count", func() {
			result := schema.Validate(parse(`
version: "1.0"
services:
  web:
    image: nginx:1.25
deployment:
  web:
    west:
      count: 0
`))
			Expect(result.OK).To(BeFalse())
			Expect(result.Errors[0].Path).To(Equal("deployment.web.west.count"))
		})
	})

	Describe("multiple violations", func() {
		It("collects every violation in a single pass", func() {
			result := schema.Validate(parse(`
services:
  web:
    ports:
      - port: 0
    scaling:
      min: 3
      max: 1
`))
			Expect(result.OK).To(BeFalse())
			paths := make([]string, len(result.Errors))
			for i, fieldErr := range result.Errors {
				paths[i] = fieldErr.Path
			}
			Expect(paths).To(ContainElements(
				"version",
				"services.web.image",
				"services.web.ports[0].port",
				"services.web.scaling",
			))
		})
	})
})

var _ = Describe("ParseSize", func() {
	It("parses binary unit suffixes", func() {
		Expect(icl.ParseSize("512Mi")).To(Equal(int64(512 * 1024 * 1024)))
		Expect(icl.ParseSize("2Gi")).To(Equal(int64(2 * 1024 * 1024 * 1024)))
	})

	It("parses decimal unit suffixes case-insensitively", func() {
		Expect(icl.ParseSize("2GB")).To(Equal(int64(2_000_000_000)))
		Expect(icl.ParseSize("100m")).To(Equal(int64(100_000_000)))
	})

	It("parses fractional sizes", func() {
		Expect(icl.ParseSize("0.5Gi")).To(Equal(int64(512 * 1024 * 1024)))
	})

	It("rejects missing or unknown suffixes", func() {
		_, err := icl.ParseSize("512")
		Expect(err).To(HaveOccurred())

		_, err = icl.ParseSize("2 gigabytes")
		Expect(err).To(HaveOccurred())
	})

	It("rejects non-positive sizes", func() {
		_, err := icl.ParseSize("0Gi")
		Expect(err).To(HaveOccurred())
	})
})
