package icl

import (
	"fmt"
	"strings"
)

// Validate checks a parsed document tree against the schema and returns every
// violation found in a single pass. It is a pure function: no state is touched
// and identical input always produces identical output.
//
// Syntax errors are not a concern here - the tree has already been parsed by
// the extractor. Validate only judges structure, types, and cross-field rules.
func (s *Schema) Validate(doc map[string]any) ValidationResult {
	v := &visitor{schema: s}

	if doc == nil {
		v.add("", "document is empty")
		return v.result()
	}

	for _, key := range s.RequiredTopLevel {
		if _, ok := doc[key]; !ok {
			v.add(key, "required top-level key is missing")
		}
	}

	if raw, ok := doc["version"]; ok {
		switch raw.(type) {
		case string, int, float64:
			// Scalars are fine; quoted and bare versions both occur in the wild.
		default:
			v.add("version", "must be a scalar version string")
		}
	}

	serviceNames := map[string]bool{}
	if raw, ok := doc["services"]; ok {
		services, ok := asMap(raw)
		if !ok {
			v.add("services", "must be a mapping of service name to definition")
		} else if len(services) == 0 {
			v.add("services", "must define at least one service")
		} else {
			for name, def := range services {
				serviceNames[name] = true
				v.checkService("services."+name, def)
			}
		}
	}

	computeProfiles := map[string]bool{}
	if raw, ok := doc["profiles"]; ok {
		profiles, ok := asMap(raw)
		if !ok {
			v.add("profiles", "must be a mapping")
		} else {
			if rawCompute, ok := profiles["compute"]; ok {
				compute, ok := asMap(rawCompute)
				if !ok {
					v.add("profiles.compute", "must be a mapping of profile name to resources")
				} else {
					for name, def := range compute {
						computeProfiles[name] = true
						v.checkComputeProfile("profiles.compute."+name, def)
					}
				}
			}
			if rawPlacement, ok := profiles["placement"]; ok {
				if _, ok := asMap(rawPlacement); !ok {
					v.add("profiles.placement", "must be a mapping of placement name to definition")
				}
			}
		}
	}

	if raw, ok := doc["deployment"]; ok {
		deployment, ok := asMap(raw)
		if !ok {
			v.add("deployment", "must be a mapping of service name to placement")
		} else {
			for name, def := range deployment {
				path := "deployment." + name
				if len(serviceNames) > 0 && !serviceNames[name] {
					v.add(path, fmt.Sprintf("deployment references undefined service %q", name))
				}
				v.checkDeployment(path, def, computeProfiles)
			}
		}
	}

	return v.result()
}

// visitor accumulates violations while walking the tree.
type visitor struct {
	schema *Schema
	errs   []FieldError
}

func (v *visitor) add(path, message string) {
	v.errs = append(v.errs, FieldError{Path: path, Message: message})
}

func (v *visitor) result() ValidationResult {
	return ValidationResult{OK: len(v.errs) == 0, Errors: v.errs}
}

func (v *visitor) checkService(path string, def any) {
	service, ok := asMap(def)
	if !ok {
		v.add(path, "service definition must be a mapping")
		return
	}

	if raw, ok := service["image"]; !ok {
		v.add(path+".image", "service must declare an image")
	} else if img, ok := raw.(string); !ok || strings.TrimSpace(img) == "" {
		v.add(path+".image", "image must be a non-empty string")
	}

	if raw, ok := service["ports"]; ok {
		ports, ok := asSeq(raw)
		if !ok {
			v.add(path+".ports", "must be a sequence of port definitions")
		} else {
			for i, p := range ports {
				v.checkPort(fmt.Sprintf("%s.ports[%d]", path, i), p)
			}
		}
	}

	if raw, ok := service["env"]; ok {
		env, ok := asSeq(raw)
		if !ok {
			v.add(path+".env", `must be a sequence of "KEY=VALUE" strings`)
		} else {
			for i, e := range env {
				entry, ok := e.(string)
				if !ok || !strings.Contains(entry, "=") {
					v.add(fmt.Sprintf("%s.env[%d]", path, i), `entry must be a "KEY=VALUE" string`)
				}
			}
		}
	}

	for _, key := range []string{"command", "args"} {
		if raw, ok := service[key]; ok {
			if _, ok := asSeq(raw); !ok {
				v.add(path+"."+key, "must be a sequence of strings")
			}
		}
	}

	if raw, ok := service["count"]; ok {
		v.checkCount(path+".count", raw)
	}
	if raw, ok := service["scaling"]; ok {
		v.checkScaling(path+".scaling", raw)
	}
}

func (v *visitor) checkPort(path string, def any) {
	port, ok := asMap(def)
	if !ok {
		v.add(path, "port entry must be a mapping")
		return
	}

	if raw, ok := port["port"]; !ok {
		v.add(path+".port", "port number is required")
	} else if n, ok := asInt(raw); !ok || n < 1 || n > 65535 {
		v.add(path+".port", "must be an integer between 1 and 65535")
	}

	if raw, ok := port["as"]; ok {
		if n, ok := asInt(raw); !ok || n < 1 || n > 65535 {
			v.add(path+".as", "must be an integer between 1 and 65535")
		}
	}
}

func (v *visitor) checkComputeProfile(path string, def any) {
	profile, ok := asMap(def)
	if !ok {
		v.add(path, "compute profile must be a mapping")
		return
	}

	raw, ok := profile["resources"]
	if !ok {
		v.add(path+".resources", "compute profile must declare resources")
		return
	}

	resources, ok := asMap(raw)
	if !ok {
		v.add(path+".resources", "must be a mapping")
		return
	}

	// The resources mapping is closed: the dialect documents exactly which
	// keys may appear here, and a typo would otherwise silently deploy with
	// default resources.
	for key := range resources {
		if !v.schema.ResourceKeys[key] {
			v.add(path+".resources."+key, fmt.Sprintf("unknown resource key %q", key))
		}
	}

	if rawCPU, ok := resources["cpu"]; ok {
		cpu, ok := asMap(rawCPU)
		if !ok {
			v.add(path+".resources.cpu", "must be a mapping with units")
		} else if rawUnits, ok := cpu["units"]; ok {
			if n, ok := asFloat(rawUnits); !ok || n <= 0 {
				v.add(path+".resources.cpu.units", "must be a positive number of vCPUs")
			}
		}
	}

	for _, key := range []string{"memory", "storage"} {
		rawEntry, ok := resources[key]
		if !ok {
			continue
		}
		entryPath := path + ".resources." + key
		entry, ok := asMap(rawEntry)
		if !ok {
			v.add(entryPath, "must be a mapping with size")
			continue
		}
		rawSize, ok := entry["size"]
		if !ok {
			v.add(entryPath+".size", "size is required")
			continue
		}
		size, ok := rawSize.(string)
		if !ok {
			v.add(entryPath+".size", `must be a size string such as "512Mi" or "2Gi"`)
			continue
		}
		if _, err := ParseSize(size); err != nil {
			v.add(entryPath+".size", err.Error())
		}
	}
}

func (v *visitor) checkDeployment(path string, def any, computeProfiles map[string]bool) {
	placements, ok := asMap(def)
	if !ok {
		v.add(path, "must be a mapping of placement name to settings")
		return
	}

	for placement, rawSettings := range placements {
		pPath := path + "." + placement
		settings, ok := asMap(rawSettings)
		if !ok {
			v.add(pPath, "must be a mapping")
			continue
		}

		if raw, ok := settings["profile"]; ok {
			if name, ok := raw.(string); !ok {
				v.add(pPath+".profile", "must be a profile name string")
			} else if len(computeProfiles) > 0 && !computeProfiles[name] {
				v.add(pPath+".profile", fmt.Sprintf("references undefined compute profile %q", name))
			}
		}

		if raw, ok := settings["count"]; ok {
			v.checkCount(pPath+".count", raw)
		}
		if raw, ok := settings["scaling"]; ok {
			v.checkScaling(pPath+".scaling", raw)
		}
	}
}

func (v *visitor) checkCount(path string, raw any) {
	if n, ok := asInt(raw); !ok || n < 1 {
		v.add(path, "must be a positive integer")
	}
}

// checkScaling enforces the min <= max invariant wherever a scaling block
// appears. Both bounds are required so a document can never autoscale without
// an upper limit.
func (v *visitor) checkScaling(path string, raw any) {
	scaling, ok := asMap(raw)
	if !ok {
		v.add(path, "must be a mapping with min and max")
		return
	}

	min, minOK := asInt(scaling["min"])
	max, maxOK := asInt(scaling["max"])

	if !minOK || min < 0 {
		v.add(path+".min", "must be a non-negative integer")
	}
	if !maxOK || max < 0 {
		v.add(path+".max", "must be a non-negative integer")
	}
	if minOK && maxOK && min >= 0 && max >= 0 && min > max {
		v.add(path, fmt.Sprintf("scaling min (%d) must not exceed max (%d)", min, max))
	}
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asSeq(v any) ([]any, bool) {
	s, ok := v.([]any)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		// CPU units are sometimes quoted ("0.5"); sizes are handled elsewhere.
		var f float64
		if _, err := fmt.Sscanf(n, "%g", &f); err == nil {
			return f, true
		}
	}
	return 0, false
}
