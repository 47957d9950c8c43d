package main

import (
	"fmt"
	"io"
	"strings"
)

// commandNames returns the space-separated command list.
func commandNames(cmds []commandDef) string {
	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.Name
	}
	return strings.Join(names, " ")
}

// flagWords returns every spelling of the command's flags.
func flagWords(c commandDef) []string {
	var words []string
	for _, f := range c.Flags {
		words = append(words, "--"+f.Long)
		if f.Short != "" {
			words = append(words, "-"+f.Short)
		}
	}
	return words
}

// globAlternation turns "*.yaml,*.yml" into "@(*.yaml|*.yml)" for bash -X.
func globAlternation(glob string) string {
	parts := strings.Split(glob, ",")
	if len(parts) == 1 {
		return parts[0]
	}
	return "@(" + strings.Join(parts, "|") + ")"
}

// quoteSingle escapes s for use inside single quotes.
func quoteSingle(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}

func generateBash(w io.Writer, cmds []commandDef) error {
	var b strings.Builder

	b.WriteString("# bash completion for newsletter\n")
	b.WriteString("_newsletter_completions() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    COMPREPLY=()\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")

	b.WriteString("    if [[ ${COMP_CWORD} -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=( $(compgen -W %q -- \"${cur}\") )\n", commandNames(cmds))
	b.WriteString("        return 0\n")
	b.WriteString("    fi\n\n")

	// Flag values, shared across commands by name.
	seen := make(map[string]bool)
	b.WriteString("    case \"${prev}\" in\n")
	for _, c := range cmds {
		for _, f := range c.Flags {
			if seen[f.Long] || (f.Type != flagFile && f.Type != flagDir) {
				continue
			}
			seen[f.Long] = true
			pattern := "--" + f.Long
			if f.Short != "" {
				pattern += "|-" + f.Short
			}
			if f.Type == flagDir {
				fmt.Fprintf(&b, "        %s)\n            COMPREPLY=( $(compgen -d -- \"${cur}\") )\n            return 0\n            ;;\n", pattern)
				continue
			}
			fmt.Fprintf(&b, "        %s)\n            COMPREPLY=( $(compgen -f -X '!%s' -- \"${cur}\") )\n            return 0\n            ;;\n",
				pattern, globAlternation(f.FileGlob))
		}
	}
	b.WriteString("    esac\n\n")

	b.WriteString("    case \"${cmd}\" in\n")
	for _, c := range cmds {
		flags := flagWords(c)
		if len(flags) == 0 && len(c.Args) == 0 && c.FilePattern == "" {
			continue
		}
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		switch {
		case len(c.Args) > 0:
			fmt.Fprintf(&b, "            COMPREPLY=( $(compgen -W %q -- \"${cur}\") )\n", strings.Join(c.Args, " "))
		case c.FilePattern != "":
			b.WriteString("            if [[ ${cur} == -* ]]; then\n")
			fmt.Fprintf(&b, "                COMPREPLY=( $(compgen -W %q -- \"${cur}\") )\n", strings.Join(flags, " "))
			b.WriteString("            else\n")
			fmt.Fprintf(&b, "                COMPREPLY=( $(compgen -f -X '!%s' -- \"${cur}\") $(compgen -d -- \"${cur}\") )\n", c.FilePattern)
			b.WriteString("            fi\n")
		default:
			fmt.Fprintf(&b, "            COMPREPLY=( $(compgen -W %q -- \"${cur}\") )\n", strings.Join(flags, " "))
		}
		b.WriteString("            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("complete -F _newsletter_completions newsletter\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// zshFlagSpec builds one _arguments spec for a flag.
func zshFlagSpec(f flagDef) string {
	desc := strings.NewReplacer("[", `\[`, "]", `\]`, "'", `'\''`).Replace(f.Desc)

	var action string
	switch f.Type {
	case flagBool:
	case flagFile:
		action = fmt.Sprintf(":file:_files -g \"%s\"", strings.ReplaceAll(f.FileGlob, ",", " "))
	case flagDir:
		action = ":directory:_files -/"
	default:
		action = ":value: "
	}

	if f.Short == "" {
		return fmt.Sprintf("'--%s[%s]%s'", f.Long, desc, action)
	}
	return fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, desc, action)
}

func generateZsh(w io.Writer, cmds []commandDef) error {
	var b strings.Builder

	b.WriteString("#compdef newsletter\n\n")
	b.WriteString("_newsletter() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, quoteSingle(c.Desc))
	}
	b.WriteString("    )\n\n")

	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")

	b.WriteString("    local cmd=\"${words[2]}\"\n")
	b.WriteString("    shift words\n")
	b.WriteString("    (( CURRENT-- ))\n\n")

	b.WriteString("    case \"${cmd}\" in\n")
	for _, c := range cmds {
		if len(c.Flags) == 0 && len(c.Args) == 0 && c.FilePattern == "" {
			continue
		}
		fmt.Fprintf(&b, "        %s)\n", c.Name)
		if len(c.Args) > 0 {
			fmt.Fprintf(&b, "            _arguments '1:argument:(%s)'\n", strings.Join(c.Args, " "))
			b.WriteString("            ;;\n")
			continue
		}
		b.WriteString("            _arguments")
		for _, f := range c.Flags {
			b.WriteString(" \\\n                " + zshFlagSpec(f))
		}
		if c.FilePattern != "" {
			fmt.Fprintf(&b, " \\\n                '*:file:_files -g \"%s\"'", c.FilePattern)
		}
		b.WriteString("\n            ;;\n")
	}
	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("_newsletter \"$@\"\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func generateFish(w io.Writer, cmds []commandDef) error {
	var b strings.Builder

	b.WriteString("# fish completion for newsletter\n\n")
	b.WriteString("function __fish_newsletter_needs_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -eq 1\n")
	b.WriteString("end\n\n")
	b.WriteString("function __fish_newsletter_using_command\n")
	b.WriteString("    set -l cmd (commandline -opc)\n")
	b.WriteString("    test (count $cmd) -gt 1; and test $cmd[2] = $argv[1]\n")
	b.WriteString("end\n\n")
	b.WriteString("complete -c newsletter -f\n\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c newsletter -n __fish_newsletter_needs_command -a %s -d '%s'\n", c.Name, quoteSingle(c.Desc))
	}

	for _, c := range cmds {
		cond := fmt.Sprintf("'__fish_newsletter_using_command %s'", c.Name)
		if len(c.Flags) > 0 || len(c.Args) > 0 || c.FilePattern != "" {
			b.WriteString("\n")
		}
		for _, f := range c.Flags {
			line := "complete -c newsletter -n " + cond
			if f.Short != "" {
				line += " -s " + f.Short
			}
			line += " -l " + f.Long
			switch f.Type {
			case flagBool:
			case flagFile, flagDir:
				line += " -r -F"
			default:
				line += " -r"
			}
			line += fmt.Sprintf(" -d '%s'", quoteSingle(f.Desc))
			b.WriteString(line + "\n")
		}
		if len(c.Args) > 0 {
			fmt.Fprintf(&b, "complete -c newsletter -n %s -a '%s'\n", cond, strings.Join(c.Args, " "))
		}
		if c.FilePattern != "" {
			fmt.Fprintf(&b, "complete -c newsletter -n %s -F\n", cond)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func generatePowerShell(w io.Writer, cmds []commandDef) error {
	var b strings.Builder

	b.WriteString("# PowerShell completion for newsletter\n")
	b.WriteString("Register-ArgumentCompleter -Native -CommandName newsletter -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n")

	b.WriteString("    $commands = [ordered]@{\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s' = '%s'\n", c.Name, strings.ReplaceAll(c.Desc, "'", "''"))
	}
	b.WriteString("    }\n\n")

	b.WriteString("    $arguments = @{\n")
	for _, c := range cmds {
		words := flagWords(c)
		words = append(words, c.Args...)
		if len(words) == 0 {
			continue
		}
		quoted := make([]string, len(words))
		for i, word := range words {
			quoted[i] = "'" + word + "'"
		}
		fmt.Fprintf(&b, "        '%s' = @(%s)\n", c.Name, strings.Join(quoted, ", "))
	}
	b.WriteString("    }\n\n")

	b.WriteString("    $elements = @($commandAst.CommandElements | ForEach-Object { $_.ToString() })\n")
	b.WriteString("    if ($elements.Count -le 1 -or ($elements.Count -eq 2 -and $wordToComplete -ne '')) {\n")
	b.WriteString("        $commands.Keys | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $commands[$_])\n")
	b.WriteString("        }\n")
	b.WriteString("        return\n")
	b.WriteString("    }\n\n")

	b.WriteString("    $cmd = $elements[1]\n")
	b.WriteString("    if ($arguments.ContainsKey($cmd)) {\n")
	b.WriteString("        $arguments[$cmd] | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterName', $_)\n")
	b.WriteString("        }\n")
	b.WriteString("    }\n")
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}
