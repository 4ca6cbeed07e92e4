// Package javatest provides Java source fixtures for tests.
package javatest

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// WriteFiles writes files (slash-separated relative path to content) under
// dir, creating directories as needed.
func WriteFiles(t testing.TB, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// WriteProject writes files into a fresh temporary directory and returns it.
func WriteProject(t testing.TB, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	WriteFiles(t, dir, files)
	return dir
}

// WriteJar packs files into a source archive in a temporary directory and
// returns its path.
func WriteJar(t testing.TB, name string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		w, err := zw.Create(n)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[n]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

// Sample is a small project exercising nesting, generics, every member
// kind, all access levels, enums, records and annotations with nested and
// array arguments.
func Sample() map[string]string {
	return map[string]string{
		"com/example/Plain.java": `package com.example;

public class Plain {
}
`,
		"com/example/Outer.java": `package com.example;

public class Outer {
    public static class Middle {
        public class Inner {
            Inner() {}
        }
    }

    private interface Hidden {}
}
`,
		"com/example/Members.java": `package com.example;

import java.util.List;
import java.util.Map;

public abstract class Members<T extends Comparable<T>> implements Comparable<Members<T>> {
    public int count;
    public static int shared;
    protected String name;
    protected static String label = "x";
    private final List<String> items = null;
    private static long counter;
    long packageField;
    static long packageStatic;
    public static final int MAX = 10;

    public Members() {}

    protected Members(String name, int... rest) {}

    public T first(List<? extends T> xs) { return null; }

    protected static void helper() {}

    private void secret() {}

    void packageMethod() {}

    public abstract <R> R map(Map<String, ? super R> m);

    public int[][] grid() { return null; }

    public List raw() { return null; }

    public interface Callback {
        void call();
    }

    enum Mode { ON, OFF }
}
`,
		"com/example/Level.java": `package com.example;

public enum Level {
    LOW,
    HIGH;

    public boolean above(Level other) { return compareTo(other) > 0; }
}
`,
		"com/example/Point.java": `package com.example;

public record Point(int x, int y) implements Comparable<Point> {
    public int compareTo(Point o) { return 0; }
}
`,
		"com/example/Tag.java": `package com.example;

public @interface Tag {
    String value();
}
`,
		"com/example/Info.java": `package com.example;

import java.lang.annotation.Retention;
import java.lang.annotation.RetentionPolicy;

@Retention(RetentionPolicy.RUNTIME)
public @interface Info {
    String name() default "none";

    int[] codes() default {};

    Tag tag() default @Tag("default");

    Class<?> type() default Object.class;

    Level level() default Level.LOW;
}
`,
		"com/example/Annotated.java": `package com.example;

@Info(name = "widget", codes = {1, 2, 3}, tag = @Tag("inner"), type = String.class, level = Level.HIGH)
@Deprecated
public class Annotated {
    @Info
    public void plain() {}

    @Info(codes = 7, name = "neg" + "ated")
    public int value;

    public Annotated(@Tag("p") String s) {}
}
`,
		"com/example/util/Box.java": `package com.example.util;

import com.example.Level;
import java.util.*;

public class Box<E> extends com.example.Plain implements Iterable<E> {
    public List<E> contents;
    public Map.Entry<String, E> entry;
    public Level level;
    public Missing broken;

    public Iterator<E> iterator() { return null; }
}
`,
	}
}
