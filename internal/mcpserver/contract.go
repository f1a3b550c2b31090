package mcpserver

// PWLFormatContract describes the canonical PWL file format that LLM
// consumers should follow when creating or editing waveform files.
const PWLFormatContract = `# PWL File Format Contract

Every waveform file stored in pwled MUST follow this structure.

## Structure

One data point per line, two whitespace-separated tokens:

` + "```" + `
<time> <value>
` + "```" + `

- Blank lines are ignored. There are no comments.
- Every non-blank line must have exactly two tokens; anything else fails
  the whole file.
- A file must contain at least one point.

## Time tokens

- Absolute: a plain timestamp measured from zero (` + "`" + `0` + "`" + `, ` + "`" + `1u` + "`" + `, ` + "`" + `2.5m` + "`" + `).
- Relative: a ` + "`" + `+` + "`" + ` prefix makes the token a delta against the previous
  point (` + "`" + `+1u` + "`" + ` means "one microsecond after the previous point").
- Absolute and relative lines may be mixed in one file.
- Time must not run backwards and two points must not share a timestamp;
  use the analyze/repair tools to detect and fix such files.

## Numeric tokens

Times and values accept three notations, interchangeable everywhere:

1. Plain decimals: ` + "`" + `0.000001` + "`" + `, ` + "`" + `-2.5` + "`" + `
2. Scientific/engineering: ` + "`" + `1e-6` + "`" + `, ` + "`" + `2.5e-3` + "`" + `
3. SI prefixes: ` + "`" + `f p n u m k M G` + "`" + ` (` + "`" + `1u` + "`" + ` = 1e-6, ` + "`" + `10k` + "`" + ` = 1e4).
   A trailing ` + "`" + `u` + "`" + ` always means micro, per SPICE convention.

## Rules

1. **File paths** end with ` + "`" + `.pwl` + "`" + ` or ` + "`" + `.txt` + "`" + ` and use forward slashes.
2. **Encoding** is UTF-8 with a trailing newline.
3. **First point** should normally start at time ` + "`" + `0` + "`" + `.
4. Prefer SI notation for readability (` + "`" + `500n` + "`" + ` over ` + "`" + `0.0000005` + "`" + `).

## Example

` + "```" + `
0 0
+500n 0
+10n 5
+500n 5
+10n 0
` + "```" + `

A 5 V pulse: flat at 0 for 500 ns, a 10 ns rising edge, 500 ns high,
then a 10 ns falling edge back to 0.
`
