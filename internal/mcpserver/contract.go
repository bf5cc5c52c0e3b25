package mcpserver

// PackageFormatContract describes the skill package format that assistants
// should follow when writing or restructuring packages. Numbers are the
// default configuration; a corpus may tighten them.
const PackageFormatContract = `# Skill Package Format Contract

A package is a directory under ` + "`skills/`" + ` holding a ` + "`SKILL.md`" + ` file.
The directory name is the package slug.

## Header block

` + "```" + `markdown
---
name: zero-trust                   # REQUIRED - equals the directory name, kebab-case, <= 64 chars
description: Use when designing... # REQUIRED - 20..1024 chars, states capability and trigger
requires: [security-practices]     # OPTIONAL - package slugs this one depends on
related: [devops]                  # OPTIONAL - package slugs worth reading alongside
resources:                         # OPTIONAL - paths relative to the package directory
  - resources/checklist.md
---
` + "```" + `

1. The opening ` + "`---`" + ` must be line 1; the block ends at the next ` + "`---`" + ` line.
2. Missing fields are reported one by one.
3. Every resource must exist inside the corpus.
4. ` + "`requires`" + ` and ` + "`related`" + ` must name existing packages and must not form a cycle.

## Tiers

| Tier | Heading | Required subsections | Token budget |
|------|---------|----------------------|--------------|
| summary | ` + "`## Level 1: Quick Start`" + ` | Core Principles, Essential Checklist | 2000 |
| implementation | ` + "`## Level 2: Implementation`" + ` | - | 5000 |
| reference | ` + "`## Level 3: Mastery`" + ` | - | 8000 |

- Headings match case-insensitively; whitespace is normalized.
- A tier spans from its heading to the next heading of the same or higher level.
- Tokens are estimated at about 4 characters per token, heading line included.
  A tier exactly at its budget passes.
- Repeated subsection headings inside a tier are flagged, except in the reference tier.

## Declared links

Hubs and indexes state their links in a declared block. Policy checks trust
only these entries; ordinary prose links are advisory.

` + "```" + `markdown
<!-- AUTO-LINKS:skills -->
- [Zero Trust](zero-trust/SKILL.md)
- docs/index.md -> docs/standards/README.md
<!-- /AUTO-LINKS -->
` + "```" + `

- Entries are a Markdown link (source is this document) or ` + "`source -> target`" + `.
- Paths are relative to the declaring document; ` + "`dir/`" + ` means ` + "`dir/README.md`" + `
  and a missing ` + "`.md`" + ` is implied.
- Any other non-blank line inside the block is reported.
`
